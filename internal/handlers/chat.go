package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/requestdata"
	"github.com/ai-shadow/shadow-backend/internal/services"
)

var errChatNotFound = errordata.NotFound("Chat not found")

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (ch *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		ChatID  string `json:"chatId"`
		Message string `json:"message"`
		Mode    string `json:"mode"`
		Model   string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}
	in := services.SendMessageInput{Message: req.Message, Mode: req.Mode, Model: req.Model}
	if s := strings.TrimSpace(req.ChatID); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondError(c, errordata.Validation("Invalid chat id"))
			return
		}
		in.ChatID = &id
	}
	ctx := c.Request.Context()
	chat, err := ch.chatService.SendMessage(ctx, requestdata.UserID(ctx), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Message sent successfully", "chat": chat})
}

func (ch *ChatHandler) ListChats(c *gin.Context) {
	in := services.ListChatsInput{
		Limit:    queryInt(c, "limit", services.DefaultChatLimit),
		Offset:   queryInt(c, "offset", 0),
		Archived: strings.EqualFold(c.Query("archived"), "true"),
	}
	ctx := c.Request.Context()
	chats, err := ch.chatService.ListChats(ctx, requestdata.UserID(ctx), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"chats": chats, "count": len(chats)})
}

func (ch *ChatHandler) SearchChats(c *gin.Context) {
	ctx := c.Request.Context()
	chats, err := ch.chatService.SearchChats(ctx, requestdata.UserID(ctx), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"chats": chats, "count": len(chats)})
}

func (ch *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := uuidParam(c, "chatId", errChatNotFound)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	chat, err := ch.chatService.GetChat(ctx, requestdata.UserID(ctx), chatID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"chat": chat})
}

func (ch *ChatHandler) UpdateChat(c *gin.Context) {
	chatID, ok := uuidParam(c, "chatId", errChatNotFound)
	if !ok {
		return
	}
	var req struct {
		Title      *string `json:"title"`
		IsPinned   *bool   `json:"is_pinned"`
		IsArchived *bool   `json:"is_archived"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}
	ctx := c.Request.Context()
	chat, err := ch.chatService.UpdateChat(ctx, requestdata.UserID(ctx), chatID, services.UpdateChatInput{
		Title:      req.Title,
		IsPinned:   req.IsPinned,
		IsArchived: req.IsArchived,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Chat updated successfully", "chat": chat})
}

func (ch *ChatHandler) DeleteChat(c *gin.Context) {
	chatID, ok := uuidParam(c, "chatId", errChatNotFound)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := ch.chatService.DeleteChat(ctx, requestdata.UserID(ctx), chatID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Chat deleted successfully"})
}

// queryInt reads a non-negative integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
