package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
)

const defaultGeminiModel = "gemini-1.5-flash"

type GeminiGateway struct {
	log    *logger.Logger
	client *genai.Client
}

func NewGeminiGateway(ctx context.Context, log *logger.Logger, apiKey string) (*GeminiGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGateway{
		log:    log.With("service", "GeminiGateway"),
		client: client,
	}, nil
}

func (gm *GeminiGateway) Close() error {
	return gm.client.Close()
}

func (gm *GeminiGateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	modelName := req.Model
	if !strings.HasPrefix(modelName, "gemini") {
		modelName = defaultGeminiModel
	}
	model := gm.client.GenerativeModel(modelName)
	model.SetTemperature(float32(req.Temperature))
	model.SetMaxOutputTokens(int32(req.MaxTokens))

	system, history, last, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, errordata.Gateway("", err)
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		gm.log.Warn("gemini SendMessage failed", "error", err)
		return nil, errordata.Gateway(err.Error(), err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errordata.Gateway("", fmt.Errorf("gemini returned no candidates"))
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	result := &CompletionResult{Content: text.String()}
	if resp.UsageMetadata != nil {
		result.TotalTokens = int64(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}

// toGeminiContents splits system text from the turns, maps assistant to
// Gemini's "model" role and folds consecutive same-role turns together. The
// final turn must come from the user.
func toGeminiContents(msgs []CompletionMessage) (string, []*genai.Content, *genai.Content, error) {
	var system []string
	var turns []*genai.Content
	for _, m := range msgs {
		role := ""
		switch m.Role {
		case "system":
			system = append(system, m.Content)
			continue
		case "assistant":
			role = "model"
		default:
			role = "user"
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Parts = append(turns[n-1].Parts, genai.Text(m.Content))
			continue
		}
		turns = append(turns, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return "", nil, nil, fmt.Errorf("conversation must end with a user turn")
	}
	return strings.Join(system, "\n\n"), turns[:len(turns)-1], turns[len(turns)-1], nil
}
