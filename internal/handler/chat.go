package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/service"
)

type Resolver interface {
	Resolve(ctx context.Context, sessionID, text string) (*service.Reply, error)
}

type Transcript interface {
	Add(ctx context.Context, sessionID string, role model.Role, text string) error
	History(ctx context.Context, sessionID string) ([]model.TranscriptEntry, error)
}

type ChatHandler struct {
	resolver   Resolver
	transcript Transcript
	log        *slog.Logger
}

func NewChatHandler(resolver Resolver, transcript Transcript) *ChatHandler {
	return &ChatHandler{
		resolver:   resolver,
		transcript: transcript,
		log:        logger.WithComponent("chat"),
	}
}

type messageRequest struct {
	Message string `json:"message"`
}

// Message: POST /api/message. Ответ из FAQ или номер нового тикета.
func (h *ChatHandler) Message(c *gin.Context) {
	var req messageRequest
	// битое тело обрабатываем как пустое сообщение
	_ = c.ShouldBindJSON(&req)

	reply, err := h.resolver.Resolve(c.Request.Context(), SessionID(c), req.Message)
	if err != nil {
		if errors.Is(err, errs.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"reply": "Пустое сообщение"})
			return
		}
		h.log.Error("resolve message", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

type historyRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// AddToHistory: POST /api/add_to_history, клиент дописывает ответ оператора.
func (h *ChatHandler) AddToHistory(c *gin.Context) {
	var req historyRequest
	_ = c.ShouldBindJSON(&req)
	if req.Role == "" || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Нет роли или текста"})
		return
	}
	err := h.transcript.Add(c.Request.Context(), SessionID(c), model.Role(req.Role), req.Text)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidRole) || errors.Is(err, errs.ErrEmptyText) || errors.Is(err, errs.ErrSessionRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("append history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ChatHandler) History(c *gin.Context) {
	items, err := h.transcript.History(c.Request.Context(), SessionID(c))
	if err != nil {
		h.log.Error("load history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": items})
}
