package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/service"
)

type FAQHandler struct {
	svc service.FAQServicer
	log *slog.Logger
}

func NewFAQHandler(svc service.FAQServicer) *FAQHandler {
	return &FAQHandler{svc: svc, log: logger.WithComponent("faq")}
}

type createFAQRequest struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Keywords string `json:"keywords"`
}

// Create: поля не обязательны, запись сохраняется как есть.
func (h *FAQHandler) Create(c *gin.Context) {
	var req createFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	e := &model.FaqEntry{
		Category: strings.TrimSpace(req.Category),
		Question: req.Question,
		Answer:   req.Answer,
		Keywords: req.Keywords,
	}
	if err := h.svc.Create(c.Request.Context(), e); err != nil {
		h.log.Error("create faq", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save faq"})
		return
	}
	h.log.Info("faq added", "id", e.ID, "category", e.Category)
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": e.ID})
}

func (h *FAQHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Error("list faq", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list faq"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faq": items})
}

func (h *FAQHandler) Categories(c *gin.Context) {
	items, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		h.log.Error("list categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": items})
}
