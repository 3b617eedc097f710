package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
)

type PageHandler struct {
	transcript Transcript
	poll       time.Duration
	log        *slog.Logger
}

func NewPageHandler(transcript Transcript, poll time.Duration) *PageHandler {
	return &PageHandler{transcript: transcript, poll: poll, log: logger.WithComponent("pages")}
}

// Index отдаёт чат; история сессии встраивается в страницу.
func (h *PageHandler) Index(c *gin.Context) {
	history, err := h.transcript.History(c.Request.Context(), SessionID(c))
	if err != nil {
		h.log.Warn("load history for page", "error", err)
		history = []model.TranscriptEntry{}
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"History": history,
		"PollMs":  h.poll.Milliseconds(),
	})
}

func (h *PageHandler) Operator(c *gin.Context) {
	c.HTML(http.StatusOK, "operator.html", gin.H{
		"PollMs": h.poll.Milliseconds(),
	})
}
