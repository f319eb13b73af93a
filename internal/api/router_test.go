package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/singalong-genie/internal/config"
	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/session"
	"github.com/Conceptual-Machines/singalong-genie/internal/songwriter"
)

type fakeWriter struct {
	mu      sync.Mutex
	song    *models.Song
	err     error
	calls   []models.GenerationContext
	started chan struct{}
	release chan struct{}
}

func (f *fakeWriter) Generate(_ context.Context, gc models.GenerationContext) (*models.Song, error) {
	f.mu.Lock()
	f.calls = append(f.calls, gc)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if gc.Previous == nil && strings.TrimSpace(gc.Prompt) == "" {
		return nil, songwriter.ErrPromptRequired
	}
	cp := f.song.Clone()
	return &cp, nil
}

func (f *fakeWriter) lastCall() models.GenerationContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func sampleSong() *models.Song {
	return &models.Song{
		Title: "Rainy Day Pup",
		Mood:  "Playful",
		Tempo: "Bouncy",
		Tips:  "Stomp on every splash",
		Parts: []models.SongPart{
			{Type: models.PartVerse, Lines: []string{"a", "b", "c", "d"}},
			{Type: models.PartChorus, Lines: []string{"splash", "splash"}},
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:        "test",
		AuthMode:           "none",
		SessionSecret:      "test-secret",
		SessionTTL:         time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

func newTestRouter(t *testing.T, w *fakeWriter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return SetupRouter(Dependencies{
		Config:   testConfig(),
		Writer:   w,
		Store:    session.NewStore(time.Hour),
		Provider: "fake",
		Model:    "fake-model",
		Version:  "test",
	})
}

func do(router http.Handler, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type sessionEnvelope struct {
	Error   string           `json:"error"`
	Session session.Snapshot `json:"session"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionEnvelope {
	t.Helper()
	var env sessionEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func generateInSession(t *testing.T, router http.Handler, sid string) {
	t.Helper()
	rec := do(router, http.MethodPost, "/api/v1/session/generate", sid, map[string]string{
		"prompt":   "A dog who loves the rain",
		"presetId": "nursery",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})

	rec := do(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsCountsSessions(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})
	do(router, http.MethodGet, "/api/v1/session", "s1", nil)

	rec := do(router, http.MethodGet, "/api/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		API map[string]any `json:"api"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.API["active_sessions"])
}

func TestListPresets(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})

	rec := do(router, http.MethodGet, "/api/v1/presets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Presets         []models.Preset `json:"presets"`
		Groups          []any           `json:"groups"`
		DefaultPresetID string          `json:"defaultPresetId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Presets, 12)
	assert.Len(t, body.Groups, 3)
	assert.Equal(t, "pub-anthem", body.DefaultPresetID)
}

func TestStatelessGenerate(t *testing.T) {
	w := &fakeWriter{song: sampleSong()}
	router := newTestRouter(t, w)

	rec := do(router, http.MethodPost, "/api/v1/songs/generate", "", map[string]any{
		"prompt":   "Socks that vanish",
		"presetId": "unknown-style",
		"feedback": "dropped without a previous song",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Rainy Day Pup")

	call := w.lastCall()
	assert.Equal(t, "nursery", call.Preset.ID, "unknown preset ids fall back to the first preset")
	assert.Empty(t, call.Feedback)
}

func TestStatelessGenerateErrors(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})
	rec := do(router, http.MethodPost, "/api/v1/songs/generate", "", map[string]any{"prompt": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	failing := newTestRouter(t, &fakeWriter{err: songwriter.ErrNoResponse})
	rec = do(failing, http.MethodPost, "/api/v1/songs/generate", "", map[string]any{"prompt": "x"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "no response from AI")
}

func TestStatelessExport(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{})

	rec := do(router, http.MethodPost, "/api/v1/songs/export/json", "", sampleSong())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Rainy_Day_Pup_data.json")

	rec = do(router, http.MethodPost, "/api/v1/songs/export/html", "", sampleSong())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Rainy_Day_Pup_lyrics.html")
	assert.Contains(t, rec.Body.String(), "<h1>Rainy Day Pup</h1>")
}

func TestSessionGenerateAndRefine(t *testing.T) {
	w := &fakeWriter{song: sampleSong()}
	router := newTestRouter(t, w)

	generateInSession(t, router, "s1")
	assert.Nil(t, w.lastCall().Previous)

	rec := do(router, http.MethodPost, "/api/v1/session/generate", "s1", map[string]string{
		"feedback": "make the chorus funnier",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	call := w.lastCall()
	require.NotNil(t, call.Previous)
	assert.Equal(t, "Rainy Day Pup", call.Previous.Title)
	assert.Equal(t, "make the chorus funnier", call.Feedback)
	assert.Equal(t, "nursery", call.Preset.ID)

	env := decodeSession(t, rec)
	assert.Equal(t, session.StateSuccess, env.Session.State)
	assert.Empty(t, env.Session.Feedback)
}

func TestSessionGenerateRequiresPrompt(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})

	rec := do(router, http.MethodPost, "/api/v1/session/generate", "s1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionGenerateFailureKeepsSong(t *testing.T) {
	w := &fakeWriter{song: sampleSong()}
	router := newTestRouter(t, w)
	generateInSession(t, router, "s1")

	w.err = errors.New("503 model overloaded")
	rec := do(router, http.MethodPost, "/api/v1/session/generate", "s1", map[string]string{"feedback": "again"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	env := decodeSession(t, rec)
	assert.Equal(t, session.StateError, env.Session.State)
	assert.Equal(t, "503 model overloaded", env.Session.Error)
	require.NotNil(t, env.Session.Song)
	assert.Equal(t, "Rainy Day Pup", env.Session.Song.Title)
}

func TestSessionBusyAndStaleAfterReset(t *testing.T) {
	w := &fakeWriter{
		song:    sampleSong(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	router := newTestRouter(t, w)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- do(router, http.MethodPost, "/api/v1/session/generate", "s1", map[string]string{"prompt": "slow song"})
	}()
	<-w.started

	busy := do(router, http.MethodPost, "/api/v1/session/generate", "s1", map[string]string{"prompt": "again"})
	assert.Equal(t, http.StatusConflict, busy.Code)

	reset := do(router, http.MethodPost, "/api/v1/session/reset", "s1", nil)
	require.Equal(t, http.StatusOK, reset.Code)

	close(w.release)
	rec := <-first
	assert.Equal(t, http.StatusConflict, rec.Code)

	env := decodeSession(t, do(router, http.MethodGet, "/api/v1/session", "s1", nil))
	assert.Equal(t, session.StateIdle, env.Session.State)
	assert.Nil(t, env.Session.Song)
}

func TestSessionEditsRejectedWhileGenerating(t *testing.T) {
	w := &fakeWriter{song: sampleSong()}
	router := newTestRouter(t, w)
	generateInSession(t, router, "s1")

	w.started = make(chan struct{}, 1)
	w.release = make(chan struct{})
	reply := sampleSong()
	reply.Title = "Model Reply"
	w.song = reply

	refine := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		refine <- do(router, http.MethodPost, "/api/v1/session/generate", "s1", map[string]string{"feedback": "funnier"})
	}()
	<-w.started

	rec := do(router, http.MethodPatch, "/api/v1/session/song", "s1", map[string]string{"title": "User Edit"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(router, http.MethodPut, "/api/v1/session/feedback", "s1", map[string]string{"feedback": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(w.release)
	require.Equal(t, http.StatusOK, (<-refine).Code)

	env := decodeSession(t, do(router, http.MethodGet, "/api/v1/session", "s1", nil))
	require.NotNil(t, env.Session.Song)
	assert.Equal(t, "Model Reply", env.Session.Song.Title)
}

func TestSessionSavedFeedback(t *testing.T) {
	w := &fakeWriter{song: sampleSong()}
	router := newTestRouter(t, w)

	rec := do(router, http.MethodPut, "/api/v1/session/feedback", "s1", map[string]string{"feedback": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "no song yet")

	generateInSession(t, router, "s1")

	rec = do(router, http.MethodPut, "/api/v1/session/feedback", "s1", map[string]string{"feedback": "make the chorus funnier"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "make the chorus funnier", decodeSession(t, rec).Session.Feedback)

	rec = do(router, http.MethodPost, "/api/v1/session/generate", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "make the chorus funnier", w.lastCall().Feedback)
}

func TestSessionEdits(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})

	rec := do(router, http.MethodPut, "/api/v1/session/song/parts/0/lines/0", "s1", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "no song yet")

	generateInSession(t, router, "s1")

	rec = do(router, http.MethodPut, "/api/v1/session/song/parts/1/lines/0", "s1", map[string]string{"text": "puddle"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, http.MethodPut, "/api/v1/session/song/parts/0/type", "s1", map[string]string{"type": "Bridge"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPatch, "/api/v1/session/song", "s1", map[string]string{"title": "Puddle Pup"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/session/song/parts", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeSession(t, do(router, http.MethodGet, "/api/v1/session", "s1", nil))
	song := env.Session.Song
	require.NotNil(t, song)
	assert.Equal(t, "Puddle Pup", song.Title)
	assert.Equal(t, "Playful", song.Mood)
	assert.Equal(t, models.PartBridge, song.Parts[0].Type)
	assert.Equal(t, []string{"a", "b", "c", "d"}, song.Parts[0].Lines)
	assert.Equal(t, []string{"puddle", "splash"}, song.Parts[1].Lines)
	require.Len(t, song.Parts, 3)
	assert.Equal(t, []string{"", "", "", ""}, song.Parts[2].Lines)
	assert.Equal(t, session.StateSuccess, env.Session.State)
}

func TestSessionEditErrors(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})
	generateInSession(t, router, "s1")

	rec := do(router, http.MethodPut, "/api/v1/session/song/parts/9/lines/0", "s1", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodPut, "/api/v1/session/song/parts/abc/lines/0", "s1", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPut, "/api/v1/session/song/parts/0/type", "s1", map[string]string{"type": "Intro"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPut, "/api/v1/session/song/parts/0/lines/0", "s1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "text is required")
}

func TestSessionExport(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})

	rec := do(router, http.MethodGet, "/api/v1/session/export/json", "s1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	generateInSession(t, router, "s1")

	rec = do(router, http.MethodGet, "/api/v1/session/export/json", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Rainy_Day_Pup_data.json")

	var song models.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &song))
	assert.Equal(t, *sampleSong(), song)

	rec = do(router, http.MethodGet, "/api/v1/session/export/html", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="part part-Chorus"`)
}

func TestSessionImportRawBody(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})

	rec := do(router, http.MethodPost, "/api/v1/session/import", "s1", `{"title":"Imported","parts":[{"type":"Verse","lines":["hi"]}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeSession(t, rec)
	assert.Equal(t, session.StateSuccess, env.Session.State)
	assert.Equal(t, "Imported", env.Session.Song.Title)
	assert.Empty(t, env.Session.Prompt)
}

func TestSessionImportMultipart(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "song_data.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"title":"From File","parts":[]}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Session-ID", "s1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "From File", decodeSession(t, rec).Session.Song.Title)
}

func TestSessionImportRejectsMissingParts(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})
	generateInSession(t, router, "s1")

	rec := do(router, http.MethodPost, "/api/v1/session/import", "s1", `{"title":"No Parts"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load song: missing title or parts")

	env := decodeSession(t, do(router, http.MethodGet, "/api/v1/session", "s1", nil))
	assert.Equal(t, session.StateSuccess, env.Session.State)
	assert.Equal(t, "Rainy Day Pup", env.Session.Song.Title)

	rec = do(router, http.MethodPost, "/api/v1/session/import", "s1", `{not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON format")
}

func TestSessionCookieIsIssued(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})

	rec := do(router, http.MethodGet, "/api/v1/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "genie_session", cookies[0].Name)
	assert.NotEmpty(t, rec.Header().Get("X-Session-ID"))

	// The cookie alone selects the same session
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, rec.Header().Get("X-Session-ID"), rec2.Header().Get("X-Session-ID"))
}

func TestSessionsAreIsolated(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{song: sampleSong()})
	generateInSession(t, router, "s1")

	env := decodeSession(t, do(router, http.MethodGet, "/api/v1/session", "s2", nil))
	assert.Nil(t, env.Session.Song)
	assert.Equal(t, session.StateIdle, env.Session.State)
}

func TestGenerationRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.GenerationRatePerMinute = 1
	router := SetupRouter(Dependencies{
		Config: cfg,
		Writer: &fakeWriter{song: sampleSong()},
		Store:  session.NewStore(time.Hour),
	})

	rec := do(router, http.MethodPost, "/api/v1/songs/generate", "", map[string]string{"prompt": "x"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/session/generate", "s1", map[string]string{"prompt": "x"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGatewayModeRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.AuthMode = "gateway"
	router := SetupRouter(Dependencies{
		Config: cfg,
		Writer: &fakeWriter{song: sampleSong()},
		Store:  session.NewStore(time.Hour),
	})

	rec := do(router, http.MethodGet, "/api/v1/presets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-User-ID", "42")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user:42", rec.Header().Get("X-Session-ID"))
}

func TestGatewayUserWinsOverSessionHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.AuthMode = "gateway"
	router := SetupRouter(Dependencies{
		Config: cfg,
		Writer: &fakeWriter{song: sampleSong()},
		Store:  session.NewStore(time.Hour),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-Session-ID", "user:7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user:42", rec.Header().Get("X-Session-ID"))
}
