package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/presets"
)

type PresetsResponse struct {
	Presets         []models.Preset   `json:"presets"`
	Groups          []presets.Group   `json:"groups"`
	DefaultPresetID string            `json:"defaultPresetId"`
	PartTypes       []models.PartType `json:"partTypes"`
}

// ListPresets returns the style catalog in display order
func ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, PresetsResponse{
		Presets:         presets.All(),
		Groups:          presets.Grouped(),
		DefaultPresetID: presets.DefaultSelectionID,
		PartTypes:       models.PartTypes(),
	})
}
