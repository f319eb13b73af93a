package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/singalong-genie/internal/api/middleware"
	"github.com/Conceptual-Machines/singalong-genie/internal/logger"
	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/session"
	"github.com/Conceptual-Machines/singalong-genie/internal/songio"
)

// SessionHandler serves the endpoints that work on the caller's session song
type SessionHandler struct {
	writer  SongWriter
	timeout time.Duration
}

func NewSessionHandler(writer SongWriter, timeout time.Duration) *SessionHandler {
	return &SessionHandler{writer: writer, timeout: timeout}
}

type SessionGenerateRequest struct {
	Prompt       string `json:"prompt"`
	ExtraContext string `json:"extraContext"`
	PresetID     string `json:"presetId"`
	Feedback     string `json:"feedback"`
}

type UpdateSongRequest struct {
	Title *string `json:"title"`
	Mood  *string `json:"mood"`
	Tempo *string `json:"tempo"`
	Tips  *string `json:"tips"`
}

type UpdateLineRequest struct {
	Text *string `json:"text" binding:"required"`
}

type UpdateFeedbackRequest struct {
	Feedback *string `json:"feedback" binding:"required"`
}

type UpdatePartTypeRequest struct {
	Type models.PartType `json:"type" binding:"required"`
}

func currentSession(c *gin.Context) (*session.Session, bool) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not resolved"})
		return nil, false
	}
	return sess, true
}

// Get returns the session snapshot
func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// Generate writes a new song for the session, or refines the current one
func (h *SessionHandler) Generate(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req SessionGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := sess.Begin(session.Submission{
		Prompt:       req.Prompt,
		ExtraContext: req.ExtraContext,
		PresetID:     req.PresetID,
		Feedback:     req.Feedback,
	})
	if err != nil {
		respondError(c, generationStatus(err), err)
		return
	}

	// The session completes even if the client goes away
	ctx, cancel := withGenerationTimeout(context.WithoutCancel(c.Request.Context()), h.timeout)
	defer cancel()

	song, genErr := h.writer.Generate(ctx, ticket.Context)

	if err := sess.Complete(ticket, song, genErr); err != nil {
		logger.Warn("Discarding stale generation result", logger.WithContext(c))
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"request_id": c.GetString("request_id"),
			"session":    sess.Snapshot(),
		})
		return
	}

	if genErr != nil {
		status := generationStatus(genErr)
		fields := logger.WithContext(c)
		fields["refine"] = ticket.Context.IsRefinement()
		logger.Error("Session generation failed", genErr, fields)
		c.JSON(status, gin.H{
			"error":      genErr.Error(),
			"request_id": c.GetString("request_id"),
			"session":    sess.Snapshot(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id": c.GetString("request_id"),
		"session":    sess.Snapshot(),
	})
}

// Reset clears the session back to an empty form
func (h *SessionHandler) Reset(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	sess.Reset()
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// UpdateSong replaces any of title, mood, tempo and tips
func (h *SessionHandler) UpdateSong(c *gin.Context) {
	var req UpdateSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.edit(c, func(song models.Song) (models.Song, error) {
		if req.Title != nil {
			song = song.WithTitle(*req.Title)
		}
		if req.Mood != nil {
			song = song.WithMood(*req.Mood)
		}
		if req.Tempo != nil {
			song = song.WithTempo(*req.Tempo)
		}
		if req.Tips != nil {
			song = song.WithTips(*req.Tips)
		}
		return song, nil
	})
}

// UpdateLine replaces one line of one part
func (h *SessionHandler) UpdateLine(c *gin.Context) {
	partIdx, ok := indexParam(c, "part")
	if !ok {
		return
	}
	lineIdx, ok := indexParam(c, "line")
	if !ok {
		return
	}

	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.edit(c, func(song models.Song) (models.Song, error) {
		return song.WithLine(partIdx, lineIdx, *req.Text)
	})
}

// UpdatePartType changes the kind of one part
func (h *SessionHandler) UpdatePartType(c *gin.Context) {
	partIdx, ok := indexParam(c, "part")
	if !ok {
		return
	}

	var req UpdatePartTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.edit(c, func(song models.Song) (models.Song, error) {
		return song.WithPartType(partIdx, req.Type)
	})
}

// AppendPart adds an empty verse
func (h *SessionHandler) AppendPart(c *gin.Context) {
	h.edit(c, func(song models.Song) (models.Song, error) {
		return song.WithAppendedPart(), nil
	})
}

// UpdateFeedback saves refinement notes for the next generate call
func (h *SessionHandler) UpdateFeedback(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.SetFeedback(*req.Feedback); err != nil {
		respondError(c, editStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

func (h *SessionHandler) edit(c *gin.Context, fn func(models.Song) (models.Song, error)) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	song, err := sess.Edit(fn)
	if err != nil {
		respondError(c, editStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"song": song})
}

// ExportJSON downloads the session song as JSON
func (h *SessionHandler) ExportJSON(c *gin.Context) {
	if song, ok := sessionSong(c); ok {
		writeJSONExport(c, song)
	}
}

// ExportHTML downloads the session song as a lyrics page
func (h *SessionHandler) ExportHTML(c *gin.Context) {
	if song, ok := sessionSong(c); ok {
		writeHTMLExport(c, song)
	}
}

// Import loads a song file (multipart field "file" or the raw body) into the session.
// A rejected file leaves the session as it was.
func (h *SessionHandler) Import(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	data, err := readImportPayload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	song, err := songio.ImportJSON(data)
	if err != nil {
		fields := logger.WithContext(c)
		fields["error"] = err.Error()
		logger.Warn("Song import rejected", fields)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "Failed to load song: " + importReason(err),
			"request_id": c.GetString("request_id"),
		})
		return
	}

	sess.Import(song)
	c.JSON(http.StatusOK, gin.H{"session": sess.Snapshot()})
}

func sessionSong(c *gin.Context) (models.Song, bool) {
	sess, ok := currentSession(c)
	if !ok {
		return models.Song{}, false
	}
	song, ok := sess.Song()
	if !ok {
		respondError(c, http.StatusNotFound, session.ErrNoSong)
		return models.Song{}, false
	}
	return song, true
}

func readImportPayload(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile(importFormField)
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImportBytes))
	}

	return io.ReadAll(c.Request.Body)
}

func importReason(err error) string {
	if errors.Is(err, songio.ErrImportMissingFields) {
		return songio.ErrImportMissingFields.Error()
	}
	return songio.ErrImportInvalidJSON.Error()
}

func indexParam(c *gin.Context, name string) (int, bool) {
	idx, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " index"})
		return 0, false
	}
	return idx, true
}
