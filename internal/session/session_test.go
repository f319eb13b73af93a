package session

import (
	"errors"
	"testing"
	"time"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/presets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generatedSong() *models.Song {
	return &models.Song{
		Title: "Campfire Beans",
		Mood:  "Cozy",
		Tempo: "Slow strum",
		Tips:  "Hum the gaps",
		Parts: []models.SongPart{
			{Type: models.PartVerse, Lines: []string{"one", "two"}},
			{Type: models.PartChorus, Lines: []string{"beans", "beans"}},
		},
	}
}

func TestNewSessionIsIdle(t *testing.T) {
	s := New("abc")
	snap := s.Snapshot()

	assert.Equal(t, "abc", snap.ID)
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Song)
	assert.Equal(t, presets.DefaultSelectionID, snap.PresetID)
}

func TestBeginRequiresPromptWithoutSong(t *testing.T) {
	s := New("abc")

	_, err := s.Begin(Submission{Prompt: "  "})
	assert.ErrorIs(t, err, ErrPromptRequired)
	assert.Equal(t, StateIdle, s.State())
}

func TestGenerateLifecycle(t *testing.T) {
	s := New("abc")

	ticket, err := s.Begin(Submission{Prompt: "Beans by the fire", PresetID: "campfire", Feedback: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, StateLoading, s.State())
	assert.False(t, ticket.Context.IsRefinement())
	assert.Equal(t, "campfire", ticket.Context.Preset.ID)
	assert.Empty(t, ticket.Context.Feedback)

	require.NoError(t, s.Complete(ticket, generatedSong(), nil))

	snap := s.Snapshot()
	assert.Equal(t, StateSuccess, snap.State)
	require.NotNil(t, snap.Song)
	assert.Equal(t, "Campfire Beans", snap.Song.Title)
	assert.Equal(t, "Beans by the fire", snap.Prompt)
}

func TestBeginWhileLoadingIsBusy(t *testing.T) {
	s := New("abc")
	_, err := s.Begin(Submission{Prompt: "first"})
	require.NoError(t, err)

	_, err = s.Begin(Submission{Prompt: "second"})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRefineSnapshotsPreviousSong(t *testing.T) {
	s := New("abc")
	s.Import(*generatedSong())

	ticket, err := s.Begin(Submission{Feedback: "make the chorus funnier"})
	require.NoError(t, err)
	require.True(t, ticket.Context.IsRefinement())
	assert.Equal(t, "make the chorus funnier", ticket.Context.Feedback)

	// The snapshot must not follow later edits
	ticket.Context.Previous.Parts[0].Lines[0] = "mutated"
	song, _ := s.Song()
	assert.Equal(t, "one", song.Parts[0].Lines[0])

	refined := generatedSong()
	refined.Title = "Funnier Beans"
	require.NoError(t, s.Complete(ticket, refined, nil))

	snap := s.Snapshot()
	assert.Equal(t, "Funnier Beans", snap.Song.Title)
	assert.Empty(t, snap.Feedback, "feedback is cleared after a successful refine")
}

func TestFailureKeepsSong(t *testing.T) {
	s := New("abc")
	s.Import(*generatedSong())

	ticket, err := s.Begin(Submission{Feedback: "more cowbell"})
	require.NoError(t, err)
	require.NoError(t, s.Complete(ticket, nil, errors.New("no response from AI")))

	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "no response from AI", snap.Error)
	require.NotNil(t, snap.Song)
	assert.Equal(t, "Campfire Beans", snap.Song.Title)
	assert.Equal(t, "more cowbell", snap.Feedback)

	// A new attempt clears the error
	_, err = s.Begin(Submission{})
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Error)
}

func TestCompletionAfterResetIsDiscarded(t *testing.T) {
	s := New("abc")
	ticket, err := s.Begin(Submission{Prompt: "stale"})
	require.NoError(t, err)

	s.Reset()

	err = s.Complete(ticket, generatedSong(), nil)
	assert.ErrorIs(t, err, ErrStaleTicket)

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Song)
	assert.Empty(t, snap.Prompt)
}

func TestCompletionAfterImportIsDiscarded(t *testing.T) {
	s := New("abc")
	ticket, err := s.Begin(Submission{Prompt: "x"})
	require.NoError(t, err)

	imported := generatedSong()
	imported.Title = "Imported"
	s.Import(*imported)

	assert.ErrorIs(t, s.Complete(ticket, generatedSong(), nil), ErrStaleTicket)
	song, ok := s.Song()
	require.True(t, ok)
	assert.Equal(t, "Imported", song.Title)
}

func TestEdit(t *testing.T) {
	s := New("abc")

	_, err := s.Edit(func(song models.Song) (models.Song, error) { return song, nil })
	assert.ErrorIs(t, err, ErrNoSong)

	s.Import(*generatedSong())
	edited, err := s.Edit(func(song models.Song) (models.Song, error) {
		return song.WithLine(1, 0, "peas")
	})
	require.NoError(t, err)
	assert.Equal(t, "peas", edited.Parts[1].Lines[0])
	assert.Equal(t, StateSuccess, s.State())

	_, err = s.Edit(func(song models.Song) (models.Song, error) {
		return song.WithLine(9, 0, "x")
	})
	assert.ErrorIs(t, err, models.ErrPartIndex)

	song, _ := s.Song()
	assert.Equal(t, "peas", song.Parts[1].Lines[0])
}

func TestEditWhileLoadingIsBusy(t *testing.T) {
	s := New("abc")
	s.Import(*generatedSong())

	ticket, err := s.Begin(Submission{})
	require.NoError(t, err)

	_, err = s.Edit(func(song models.Song) (models.Song, error) {
		return song.WithTitle("User Edit"), nil
	})
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.SetFeedback("louder"), ErrBusy)

	reply := generatedSong()
	reply.Title = "Model Reply"
	require.NoError(t, s.Complete(ticket, reply, nil))

	edited, err := s.Edit(func(song models.Song) (models.Song, error) {
		return song.WithTitle("User Edit"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "User Edit", edited.Title)
}

func TestSavedFeedbackIsUsedByNextRefine(t *testing.T) {
	s := New("abc")
	assert.ErrorIs(t, s.SetFeedback("anything"), ErrNoSong)

	s.Import(*generatedSong())
	require.NoError(t, s.SetFeedback("add a kazoo solo"))
	assert.Equal(t, "add a kazoo solo", s.Snapshot().Feedback)

	ticket, err := s.Begin(Submission{})
	require.NoError(t, err)
	assert.Equal(t, "add a kazoo solo", ticket.Context.Feedback)
	require.NoError(t, s.Complete(ticket, generatedSong(), nil))

	require.NoError(t, s.SetFeedback("saved"))
	ticket, err = s.Begin(Submission{Feedback: "typed"})
	require.NoError(t, err)
	assert.Equal(t, "typed", ticket.Context.Feedback)
}

func TestResetKeepsSelectedPreset(t *testing.T) {
	s := New("abc")
	ticket, err := s.Begin(Submission{Prompt: "x", PresetID: "sea-shanty", ExtraContext: "Bob"})
	require.NoError(t, err)
	require.NoError(t, s.Complete(ticket, generatedSong(), nil))

	s.Reset()

	snap := s.Snapshot()
	assert.Equal(t, "sea-shanty", snap.PresetID)
	assert.Empty(t, snap.Prompt)
	assert.Empty(t, snap.ExtraContext)
	assert.Nil(t, snap.Song)
}

func TestImportClearsPrompt(t *testing.T) {
	s := New("abc")
	ticket, err := s.Begin(Submission{Prompt: "something"})
	require.NoError(t, err)
	require.NoError(t, s.Complete(ticket, generatedSong(), nil))

	s.Import(*generatedSong())
	assert.Empty(t, s.Snapshot().Prompt)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New("abc")
	s.Import(*generatedSong())

	snap := s.Snapshot()
	snap.Song.Parts[0].Lines[0] = "changed"

	song, _ := s.Song()
	assert.Equal(t, "one", song.Parts[0].Lines[0])
}

func TestStoreGetOrCreate(t *testing.T) {
	store := NewStore(time.Hour)

	a := store.GetOrCreate("one")
	b := store.GetOrCreate("one")
	assert.Same(t, a, b)
	assert.Equal(t, 1, store.Count())

	store.GetOrCreate("two")
	assert.Equal(t, 2, store.Count())

	_, ok := store.Lookup("missing")
	assert.False(t, ok)

	store.Delete("one")
	_, ok = store.Lookup("one")
	assert.False(t, ok)
}

func TestStoreExpiresSessions(t *testing.T) {
	store := NewStore(20 * time.Millisecond)
	store.GetOrCreate("short")

	time.Sleep(40 * time.Millisecond)

	_, ok := store.Lookup("short")
	assert.False(t, ok)
}
