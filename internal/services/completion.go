package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model       string
	Messages    []CompletionMessage
	Temperature float64
	MaxTokens   int
}

type CompletionResult struct {
	Content     string
	TotalTokens int64
}

// CompletionGateway is the external model provider. Failures come back as
// errordata Gateway errors.
type CompletionGateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

type openAIGateway struct {
	log    *logger.Logger
	client *http.Client
	apiURL string
	apiKey string
}

type openAIRequest struct {
	Model       string              `json:"model"`
	Messages    []CompletionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage"`
}

type openAIErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAIGateway talks to any OpenAI-compatible chat completions endpoint.
func NewOpenAIGateway(log *logger.Logger, apiURL, apiKey string, timeout time.Duration) (CompletionGateway, error) {
	serviceLog := log.With("service", "OpenAIGateway")
	if apiURL == "" {
		return nil, fmt.Errorf("missing AI_API_URL")
	}
	if apiKey == "" {
		serviceLog.Warn("AI_API_KEY not set; calls might fail or be unauthorized")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &openAIGateway{
		log:    serviceLog,
		client: &http.Client{Timeout: timeout},
		apiURL: apiURL,
		apiKey: apiKey,
	}, nil
}

func (og *openAIGateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	body, err := json.Marshal(openAIRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, errordata.Gateway("", fmt.Errorf("failed to encode completion request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, og.apiURL, bytes.NewReader(body))
	if err != nil {
		og.log.Warn("failed to build completion request", "error", err)
		return nil, errordata.Gateway("", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if og.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+og.apiKey)
	}

	resp, err := og.client.Do(httpReq)
	if err != nil {
		og.log.Warn("failed to call completion provider", "error", err)
		return nil, errordata.Gateway("", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		og.log.Warn("failed to read completion response body", "error", err)
		return nil, errordata.Gateway("", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		og.log.Warn("completion provider responded with non-2xx", "statusCode", resp.StatusCode, "body", string(raw))
		detail := fmt.Sprintf("completion gateway returned HTTP %d", resp.StatusCode)
		var eb openAIErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != nil && eb.Error.Message != "" {
			detail = eb.Error.Message
		}
		return nil, errordata.Gateway(detail, fmt.Errorf("completion HTTP %d", resp.StatusCode))
	}

	var out openAIResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		og.log.Warn("failed to decode completion response", "error", err)
		return nil, errordata.Gateway("", fmt.Errorf("malformed completion response: %w", err))
	}
	if len(out.Choices) == 0 {
		return nil, errordata.Gateway("", fmt.Errorf("completion response has no choices"))
	}
	result := &CompletionResult{Content: out.Choices[0].Message.Content}
	if out.Usage != nil {
		result.TotalTokens = out.Usage.TotalTokens
	}
	og.log.Debug("Completion call success", "model", req.Model, "tokens", result.TotalTokens)
	return result, nil
}
