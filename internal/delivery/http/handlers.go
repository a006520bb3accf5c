package http

import (
	"errors"
	"fmt"
	"net/http"

	"edubot/internal/domain"
	"edubot/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Handler struct {
	Gateway  domain.Gateway
	Revealer *stream.Revealer
	Log      *zap.Logger
}

func NewHandler(gw domain.Gateway, r *stream.Revealer, log *zap.Logger) *Handler {
	if r == nil {
		r = stream.New(0, 0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Gateway: gw, Revealer: r, Log: log}
}

// ========== UTILITY FUNCTIONS ==========

func formatValidationErrors(err error) gin.H {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		details := make(map[string]string)
		for _, f := range ve {
			details[f.Field()] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", f.Field(), f.Tag())
		}
		return gin.H{"error": "Validation failed", "details": details}
	}
	return gin.H{"error": "Invalid request: " + err.Error()}
}

// statusFor passes gateway statuses through and reports anything else as a
// bad gateway.
func statusFor(err error) int {
	if code := domain.StatusCode(err); code != 0 {
		return code
	}
	return http.StatusBadGateway
}

// ========== HEALTH ==========

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ========== STREAMING ==========

type queryRequest struct {
	ThreadID string `json:"thread_id" binding:"required"`
	Question string `json:"question" binding:"required"`
	Class    string `json:"class"`
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
}

// StreamQuery asks the gateway and relays the answer as server-sent events:
// one "partial" per revealed word, then "done" with the full answer.
func (h *Handler) StreamQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	ctx := c.Request.Context()
	answer, err := h.Gateway.Query(ctx, c.GetString(ctxToken), domain.Query{
		ThreadID: req.ThreadID,
		Question: req.Question,
		Class:    req.Class,
		Subject:  req.Subject,
		Topic:    req.Topic,
	})
	if err != nil {
		h.Log.Warn("query failed", zap.String("thread_id", req.ThreadID), zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if answer == "" {
		answer = domain.NoAnswer
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	partials, errc := h.Revealer.Chunks(ctx, answer)
	for p := range partials {
		c.SSEvent("partial", gin.H{"text": p})
		c.Writer.Flush()
	}
	if err := <-errc; err != nil {
		h.Log.Debug("client left during reveal", zap.String("thread_id", req.ThreadID), zap.Error(err))
		return
	}
	c.SSEvent("done", gin.H{"answer": answer})
	c.Writer.Flush()
}
