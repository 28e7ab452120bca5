// Package api exposes the assistant over HTTP and a websocket.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/agentmate/internal/agent"
)

const rootMessage = "AI Agent with Gemini + Tools is running"

var (
	errMissingUserID  = errors.New("user_id is required")
	errMissingMessage = errors.New("message is required")
)

// Assistant is the conversational core the handlers delegate to.
type Assistant interface {
	Reply(ctx context.Context, userID, message string) agent.Reply
	Clear(ctx context.Context, userID string) error
}

type Handler struct {
	assistant Assistant
	logger    *zap.SugaredLogger
	now       func() time.Time
}

func NewHandler(assistant Assistant, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{assistant: assistant, logger: logger, now: time.Now}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.handleRoot)
	router.GET("/health", h.handleHealth)
	router.POST("/chat", h.handleChat)
	router.POST("/clear", h.handleClear)
	router.GET("/ws", h.handleWebsocket)
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (r chatRequest) validate(requireMessage bool) error {
	if strings.TrimSpace(r.UserID) == "" {
		return errMissingUserID
	}
	if requireMessage && strings.TrimSpace(r.Message) == "" {
		return errMissingMessage
	}
	return nil
}

type chatResponse struct {
	Reply  string `json:"reply"`
	Status string `json:"status"`
	Source string `json:"source"`
}

func newChatResponse(reply agent.Reply) chatResponse {
	return chatResponse{Reply: reply.Text, Status: string(reply.Status), Source: reply.Source}
}

func (h *Handler) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": rootMessage})
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	if err := req.validate(true); err != nil {
		writeError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	reply := h.assistant.Reply(c.Request.Context(), strings.TrimSpace(req.UserID), req.Message)
	c.JSON(http.StatusOK, newChatResponse(reply))
}

func (h *Handler) handleClear(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	if err := req.validate(false); err != nil {
		writeError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if err := h.assistant.Clear(c.Request.Context(), userID); err != nil {
		h.logger.Warnf("clear history for %s failed: %v", userID, err)
		writeError(c, http.StatusInternalServerError, "failed to clear history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": clearedStatus(userID)})
}

func clearedStatus(userID string) string {
	return "cleared for user " + userID
}

func writeError(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
