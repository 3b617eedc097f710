package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/service"
)

type TicketHandler struct {
	svc service.TicketServicer
	log *slog.Logger
}

func NewTicketHandler(svc service.TicketServicer) *TicketHandler {
	return &TicketHandler{svc: svc, log: logger.WithComponent("tickets")}
}

// List: открытые тикеты, новые первыми. ?status=closed|all для истории.
func (h *TicketHandler) List(c *gin.Context) {
	status, err := model.ParseStatusFilter(c.DefaultQuery("status", string(model.TicketStatusOpen)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	items, err := h.svc.List(c.Request.Context(), status)
	if err != nil {
		h.log.Error("list tickets", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": items})
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": t})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// Answer закрывает тикет ответом оператора.
func (h *TicketHandler) Answer(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Answer(c.Request.Context(), id, req.Answer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "operator_answer": t.OperatorAnswer})
}

func (h *TicketHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrBlankAnswer):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("ticket request", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func ticketID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
