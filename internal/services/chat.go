package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/locks"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/normalization"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

const (
	HistoryWindow     = 20
	TitleMaxRunes     = 50
	DefaultChatLimit  = 50
	MaxChatLimit      = 100
	SearchResultLimit = 20
)

var (
	errChatAccessDenied = errordata.AccessDenied("Access denied to this chat")
	errChatNotFound     = errordata.NotFound("Chat not found")
)

type SendMessageInput struct {
	ChatID  *uuid.UUID
	Message string
	Mode    string
	Model   string
}

type ListChatsInput struct {
	Limit    int
	Offset   int
	Archived bool
}

// UpdateChatInput is a partial update; nil fields are left alone.
type UpdateChatInput struct {
	Title      *string
	IsPinned   *bool
	IsArchived *bool
}

type ChatServiceConfig struct {
	DefaultModel string
}

type ChatService interface {
	SendMessage(ctx context.Context, userID uuid.UUID, in SendMessageInput) (*types.Chat, error)
	ListChats(ctx context.Context, userID uuid.UUID, in ListChatsInput) ([]*types.ChatSummary, error)
	GetChat(ctx context.Context, userID, chatID uuid.UUID) (*types.Chat, error)
	DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error
	UpdateChat(ctx context.Context, userID, chatID uuid.UUID, in UpdateChatInput) (*types.Chat, error)
	SearchChats(ctx context.Context, userID uuid.UUID, query string) ([]*types.Chat, error)
}

type chatService struct {
	db            *gorm.DB
	log           *logger.Logger
	chatRepo      repos.ChatRepo
	messageRepo   repos.MessageRepo
	userStatsRepo repos.UserStatsRepo
	gateway       CompletionGateway
	locker        locks.ChatLocker
	events        EventPublisher
	cfg           ChatServiceConfig
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	chatRepo repos.ChatRepo,
	messageRepo repos.MessageRepo,
	userStatsRepo repos.UserStatsRepo,
	gateway CompletionGateway,
	locker locks.ChatLocker,
	events EventPublisher,
	cfg ChatServiceConfig,
) ChatService {
	if locker == nil {
		locker = locks.NewLocalLocker()
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-3.5-turbo"
	}
	return &chatService{
		db:            db,
		log:           log.With("service", "ChatService"),
		chatRepo:      chatRepo,
		messageRepo:   messageRepo,
		userStatsRepo: userStatsRepo,
		gateway:       gateway,
		locker:        locker,
		events:        events,
		cfg:           cfg,
	}
}

// authorizeChat loads chatID only if userID owns it. A missing chat and a
// foreign chat both yield miss, so callers cannot probe for existence.
func (cs *chatService) authorizeChat(ctx context.Context, tx *gorm.DB, userID, chatID uuid.UUID, miss error) (*types.Chat, error) {
	if userID == uuid.Nil {
		return nil, errordata.Unauthorized("Access denied. No token provided.", nil)
	}
	chat, err := cs.chatRepo.GetOwned(ctx, tx, chatID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, miss
	}
	if err != nil {
		return nil, errordata.Internal("Error loading chat", err)
	}
	return chat, nil
}

func (cs *chatService) SendMessage(ctx context.Context, userID uuid.UUID, in SendMessageInput) (*types.Chat, error) {
	//1) Validate input
	if strings.TrimSpace(in.Message) == "" {
		return nil, errordata.Validation("Message content is required")
	}
	if userID == uuid.Nil {
		return nil, errordata.Unauthorized("Access denied. No token provided.", nil)
	}
	mode := types.ParseChatMode(in.Mode)
	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = cs.cfg.DefaultModel
	}

	//2) Resolve the chat, creating it on the first message
	var chat *types.Chat
	created := false
	if in.ChatID == nil || *in.ChatID == uuid.Nil {
		if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			c, cErr := cs.chatRepo.Create(ctx, tx, &types.Chat{
				UserID: userID,
				Title:  normalization.TruncateRunes(in.Message, TitleMaxRunes, "..."),
				Mode:   mode,
				Model:  model,
			})
			if cErr != nil {
				return fmt.Errorf("create chat: %w", cErr)
			}
			if sErr := cs.userStatsRepo.AdjustChatCount(ctx, tx, userID, 1); sErr != nil {
				return fmt.Errorf("bump chat count: %w", sErr)
			}
			chat = c
			return nil
		}); err != nil {
			cs.log.Warn("Failed to create new chat, Cannot proceed. Returning error.", "error", err)
			return nil, errordata.Internal("Error sending message", err)
		}
		created = true
	} else {
		c, err := cs.authorizeChat(ctx, nil, userID, *in.ChatID, errChatAccessDenied)
		if err != nil {
			return nil, err
		}
		chat = c
	}

	//3) One send per chat at a time
	unlock, err := cs.locker.Lock(ctx, chat.ID)
	if err != nil {
		cs.log.Warn("Failed to acquire chat lock, Cannot proceed. Returning error.", "chatID", chat.ID, "error", err)
		return nil, errordata.Internal("Error sending message", err)
	}
	defer unlock()

	//4) Persist the user turn
	if _, err := cs.messageRepo.Append(ctx, nil, &types.Message{
		ChatID:  chat.ID,
		Role:    types.MessageRoleUser,
		Content: in.Message,
	}); err != nil {
		cs.log.Warn("Failed to save user message, Cannot proceed. Returning error.", "error", err)
		return nil, errordata.Internal("Error sending message", err)
	}
	if created {
		cs.publish(ctx, userID, ChatEventCreated, chat)
	}

	//5) Assemble the context window and call the provider
	history, err := cs.messageRepo.Recent(ctx, nil, chat.ID, HistoryWindow)
	if err != nil {
		cs.log.Warn("Failed to load chat history, Cannot proceed. Returning error.", "error", err)
		return nil, errordata.Internal("Error sending message", err)
	}
	result, err := cs.gateway.Complete(ctx, BuildCompletionRequest(mode, model, history))
	if err != nil {
		cs.log.Warn("Completion gateway failed, user message kept. Returning error.", "chatID", chat.ID, "error", err)
		if errordata.KindOf(err) != errordata.KindGateway {
			err = errordata.Gateway("", err)
		}
		return nil, err
	}

	//6) Persist the reply, bump the chat and accrue stats together
	persistCtx := context.WithoutCancel(ctx)
	now := time.Now()
	if err := cs.db.WithContext(persistCtx).Transaction(func(tx *gorm.DB) error {
		if _, aErr := cs.messageRepo.Append(persistCtx, tx, &types.Message{
			ChatID:  chat.ID,
			Role:    types.MessageRoleAssistant,
			Content: result.Content,
			Tokens:  result.TotalTokens,
		}); aErr != nil {
			return fmt.Errorf("save assistant message: %w", aErr)
		}
		if tErr := cs.chatRepo.Touch(persistCtx, tx, chat.ID, now); tErr != nil {
			return fmt.Errorf("touch chat: %w", tErr)
		}
		if sErr := cs.userStatsRepo.RecordExchange(persistCtx, tx, userID, 2, result.TotalTokens, mode, now); sErr != nil {
			return fmt.Errorf("record stats: %w", sErr)
		}
		return nil
	}); err != nil {
		cs.log.Warn("Failed to persist assistant reply, Cannot proceed. Returning error.", "error", err)
		return nil, errordata.Internal("Error sending message", err)
	}

	//7) Return the whole conversation
	full, err := cs.chatRepo.GetOwnedWithMessages(persistCtx, nil, chat.ID, userID)
	if err != nil {
		return nil, errordata.Internal("Error sending message", err)
	}
	cs.publish(ctx, userID, ChatEventUpdated, full)
	return full, nil
}

// BuildCompletionRequest prepends the persona for mode to the history window.
func BuildCompletionRequest(mode types.ChatMode, model string, history []*types.Message) CompletionRequest {
	msgs := make([]CompletionMessage, 0, len(history)+1)
	msgs = append(msgs, CompletionMessage{Role: string(types.MessageRoleSystem), Content: SystemPromptFor(mode)})
	for _, m := range history {
		msgs = append(msgs, CompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return CompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

func (cs *chatService) ListChats(ctx context.Context, userID uuid.UUID, in ListChatsInput) ([]*types.ChatSummary, error) {
	if userID == uuid.Nil {
		return nil, errordata.Unauthorized("Access denied. No token provided.", nil)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultChatLimit
	}
	if limit > MaxChatLimit {
		limit = MaxChatLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	chats, err := cs.chatRepo.ListSummaries(ctx, nil, userID, in.Archived, limit, offset)
	if err != nil {
		return nil, errordata.Internal("Error fetching chats", err)
	}
	return chats, nil
}

func (cs *chatService) GetChat(ctx context.Context, userID, chatID uuid.UUID) (*types.Chat, error) {
	if _, err := cs.authorizeChat(ctx, nil, userID, chatID, errChatNotFound); err != nil {
		return nil, err
	}
	chat, err := cs.chatRepo.GetOwnedWithMessages(ctx, nil, chatID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errChatNotFound
	}
	if err != nil {
		return nil, errordata.Internal("Error fetching chat", err)
	}
	return chat, nil
}

func (cs *chatService) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, aErr := cs.authorizeChat(ctx, tx, userID, chatID, errChatNotFound); aErr != nil {
			return aErr
		}
		n, dErr := cs.chatRepo.DeleteOwned(ctx, tx, chatID, userID)
		if dErr != nil {
			return errordata.Internal("Error deleting chat", dErr)
		}
		if n == 0 {
			return errChatNotFound
		}
		if sErr := cs.userStatsRepo.AdjustChatCount(ctx, tx, userID, -1); sErr != nil {
			return errordata.Internal("Error deleting chat", sErr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cs.publish(ctx, userID, ChatEventDeleted, map[string]interface{}{"id": chatID})
	return nil
}

func (cs *chatService) UpdateChat(ctx context.Context, userID, chatID uuid.UUID, in UpdateChatInput) (*types.Chat, error) {
	fields := map[string]interface{}{}
	if in.Title != nil {
		title := normalization.TrimText(*in.Title)
		if title == "" {
			return nil, errordata.Validation("Title cannot be empty")
		}
		fields["title"] = title
	}
	if in.IsPinned != nil {
		fields["is_pinned"] = *in.IsPinned
	}
	if in.IsArchived != nil {
		fields["is_archived"] = *in.IsArchived
	}
	if len(fields) == 0 {
		return nil, errordata.Validation("No fields to update")
	}

	var updated *types.Chat
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, aErr := cs.authorizeChat(ctx, tx, userID, chatID, errChatNotFound); aErr != nil {
			return aErr
		}
		if uErr := cs.chatRepo.UpdateFields(ctx, tx, chatID, userID, fields); uErr != nil {
			if errors.Is(uErr, gorm.ErrRecordNotFound) {
				return errChatNotFound
			}
			return errordata.Internal("Error updating chat", uErr)
		}
		c, gErr := cs.chatRepo.GetOwned(ctx, tx, chatID, userID)
		if gErr != nil {
			return errordata.Internal("Error updating chat", gErr)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.publish(ctx, userID, ChatEventUpdated, updated)
	return updated, nil
}

func (cs *chatService) SearchChats(ctx context.Context, userID uuid.UUID, query string) ([]*types.Chat, error) {
	q := normalization.TrimText(query)
	if q == "" {
		return nil, errordata.Validation("Search query is required")
	}
	if userID == uuid.Nil {
		return nil, errordata.Unauthorized("Access denied. No token provided.", nil)
	}
	chats, err := cs.chatRepo.Search(ctx, nil, userID, q, SearchResultLimit)
	if err != nil {
		return nil, errordata.Internal("Error searching chats", err)
	}
	if chats == nil {
		chats = []*types.Chat{}
	}
	return chats, nil
}

func (cs *chatService) publish(ctx context.Context, userID uuid.UUID, event string, payload interface{}) {
	if cs.events == nil {
		return
	}
	cs.events.PublishUserEvent(ctx, userID, event, payload)
}
