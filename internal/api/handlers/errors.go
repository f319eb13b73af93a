package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/singalong-genie/internal/logger"
	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/session"
	"github.com/Conceptual-Machines/singalong-genie/internal/songwriter"
)

// generationStatus maps a generation failure to an HTTP status.
// Anything the provider did wrong is a bad gateway; the caller's own mistakes are 4xx.
func generationStatus(err error) int {
	switch {
	case errors.Is(err, songwriter.ErrPromptRequired), errors.Is(err, session.ErrPromptRequired):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrStaleTicket):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// editStatus maps a document edit failure to an HTTP status
func editStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoSong),
		errors.Is(err, models.ErrPartIndex),
		errors.Is(err, models.ErrLineIndex):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidPartType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, err error) {
	fields := logger.WithContext(c)
	fields["status_code"] = status
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, fields)
	} else {
		fields["error"] = err.Error()
		logger.Warn("Request rejected", fields)
	}

	c.JSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString("request_id"),
	})
}
