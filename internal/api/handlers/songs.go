package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/presets"
	"github.com/Conceptual-Machines/singalong-genie/internal/songio"
)

// SongWriter writes or refines a song from a generation context
type SongWriter interface {
	Generate(ctx context.Context, gc models.GenerationContext) (*models.Song, error)
}

// SongHandler serves the stateless song endpoints
type SongHandler struct {
	writer  SongWriter
	timeout time.Duration
}

func NewSongHandler(writer SongWriter, timeout time.Duration) *SongHandler {
	return &SongHandler{writer: writer, timeout: timeout}
}

type GenerateSongRequest struct {
	Prompt       string       `json:"prompt"`
	ExtraContext string       `json:"extraContext"`
	PresetID     string       `json:"presetId"`
	Feedback     string       `json:"feedback"`
	Previous     *models.Song `json:"previous"`
}

// Generate writes a new song, or refines "previous" when it is given
func (h *SongHandler) Generate(c *gin.Context) {
	var req GenerateSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gc := models.GenerationContext{
		Prompt:       req.Prompt,
		Preset:       presets.Lookup(req.PresetID),
		Previous:     req.Previous,
		ExtraContext: req.ExtraContext,
	}
	if req.Previous != nil {
		gc.Feedback = req.Feedback
	}

	ctx, cancel := withGenerationTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	song, err := h.writer.Generate(ctx, gc)
	if err != nil {
		respondError(c, generationStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id": c.GetString("request_id"),
		"song":       song,
	})
}

// ExportJSON returns the posted song as a JSON download
func (h *SongHandler) ExportJSON(c *gin.Context) {
	var song models.Song
	if err := c.ShouldBindJSON(&song); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	writeJSONExport(c, song)
}

// ExportHTML returns the posted song as a printable lyrics page
func (h *SongHandler) ExportHTML(c *gin.Context) {
	var song models.Song
	if err := c.ShouldBindJSON(&song); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	writeHTMLExport(c, song)
}

func writeJSONExport(c *gin.Context, song models.Song) {
	data, err := songio.ExportJSON(song)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	attachment(c, songio.FileName(song.Title, songio.SuffixJSON))
	c.Data(http.StatusOK, mimeJSON, data)
}

func writeHTMLExport(c *gin.Context, song models.Song) {
	data, err := songio.ExportHTML(c.Request.Context(), song)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	attachment(c, songio.FileName(song.Title, songio.SuffixHTML))
	c.Data(http.StatusOK, mimeHTML, data)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// withGenerationTimeout applies the configured deadline; zero means none
func withGenerationTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
