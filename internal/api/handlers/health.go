package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	provider string
	model    string
}

func NewHealthHandler(provider, model string) *HealthHandler {
	return &HealthHandler{provider: provider, model: model}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"llm": gin.H{
			"provider": h.provider,
			"model":    h.model,
		},
	})
}
