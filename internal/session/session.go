// Package session holds the per-user generation and editing state of one song
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/presets"
)

// State is the generation status of a session
type State string

const (
	StateIdle    State = "IDLE"
	StateLoading State = "LOADING"
	StateSuccess State = "SUCCESS"
	StateError   State = "ERROR"
)

var (
	ErrBusy           = errors.New("a generation is already in progress")
	ErrPromptRequired = errors.New("a story prompt is required to write a new song")
	ErrStaleTicket    = errors.New("generation result is stale and was discarded")
	ErrNoSong         = errors.New("session has no song")
)

// Submission is the form input of one generate or refine request
type Submission struct {
	Prompt       string
	ExtraContext string
	PresetID     string
	Feedback     string
}

// Ticket identifies one in-flight generation. Its context is a snapshot taken at Begin.
type Ticket struct {
	Token   uint64
	Context models.GenerationContext
}

// Snapshot is a copy of the session state that is safe to hand out
type Snapshot struct {
	ID           string       `json:"id"`
	State        State        `json:"state"`
	Song         *models.Song `json:"song"`
	Error        string       `json:"error,omitempty"`
	Prompt       string       `json:"prompt"`
	ExtraContext string       `json:"extraContext"`
	PresetID     string       `json:"presetId"`
	Feedback     string       `json:"feedback"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Session is one user's song and generation status.
// A monotonically increasing token ties each completion to the Begin that started it.
type Session struct {
	mu sync.Mutex

	id           string
	state        State
	song         *models.Song
	errMsg       string
	prompt       string
	extraContext string
	presetID     string
	feedback     string
	token        uint64
	updatedAt    time.Time
}

// New creates an idle session with the default preset selected
func New(id string) *Session {
	return &Session{
		id:        id,
		state:     StateIdle,
		presetID:  presets.DefaultSelectionID,
		updatedAt: time.Now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Begin moves the session to LOADING and returns the ticket for the request.
// With a current song the request refines it; otherwise a prompt is required.
func (s *Session) Begin(sub Submission) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return Ticket{}, ErrBusy
	}
	if s.song == nil && strings.TrimSpace(sub.Prompt) == "" {
		return Ticket{}, ErrPromptRequired
	}

	s.prompt = sub.Prompt
	s.extraContext = sub.ExtraContext
	if sub.PresetID != "" {
		s.presetID = sub.PresetID
	}

	gc := models.GenerationContext{
		Prompt:       sub.Prompt,
		Preset:       presets.Lookup(s.presetID),
		ExtraContext: sub.ExtraContext,
	}
	if s.song != nil {
		prev := s.song.Clone()
		gc.Previous = &prev
		// Saved notes apply when the submission carries none
		if sub.Feedback != "" {
			s.feedback = sub.Feedback
		}
		gc.Feedback = s.feedback
	} else {
		s.feedback = ""
	}

	s.token++
	s.state = StateLoading
	s.errMsg = ""
	s.touch()

	return Ticket{Token: s.token, Context: gc}, nil
}

// Complete applies the outcome of a ticket. Outcomes for superseded tickets are
// dropped with ErrStaleTicket and leave the session untouched.
func (s *Session) Complete(t Ticket, song *models.Song, genErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Token != s.token || s.state != StateLoading {
		return ErrStaleTicket
	}

	if genErr != nil {
		s.state = StateError
		s.errMsg = genErr.Error()
		s.touch()
		return nil
	}
	if song == nil {
		s.state = StateError
		s.errMsg = "no song returned"
		s.touch()
		return nil
	}

	cp := song.Clone()
	s.song = &cp
	s.state = StateSuccess
	s.feedback = ""
	s.touch()
	return nil
}

// Reset returns the session to IDLE and forgets the song and the form text.
// The selected preset is kept. Any in-flight ticket becomes stale.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token++
	s.state = StateIdle
	s.song = nil
	s.errMsg = ""
	s.prompt = ""
	s.extraContext = ""
	s.feedback = ""
	s.touch()
}

// Edit replaces the song with the result of fn. The generation state is unchanged.
// Edits are refused while a generation is running since its result would replace them.
func (s *Session) Edit(fn func(models.Song) (models.Song, error)) (models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return models.Song{}, ErrBusy
	}
	if s.song == nil {
		return models.Song{}, ErrNoSong
	}

	next, err := fn(*s.song)
	if err != nil {
		return models.Song{}, err
	}
	s.song = &next
	s.touch()
	return next.Clone(), nil
}

// Import replaces the song with an imported document and clears the prompt.
// Any in-flight ticket becomes stale.
func (s *Session) Import(song models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := song.Clone()
	s.token++
	s.song = &cp
	s.state = StateSuccess
	s.errMsg = ""
	s.prompt = ""
	s.touch()
}

// SetFeedback saves refinement notes for the current song. The next Begin uses them
// when its submission has no feedback of its own.
func (s *Session) SetFeedback(feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return ErrBusy
	}
	if s.song == nil {
		return ErrNoSong
	}
	s.feedback = feedback
	s.touch()
	return nil
}

// Song returns a copy of the current song, if any
func (s *Session) Song() (models.Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.song == nil {
		return models.Song{}, false
	}
	return s.song.Clone(), true
}

// State returns the current generation state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a deep copy of the session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.id,
		State:        s.state,
		Error:        s.errMsg,
		Prompt:       s.prompt,
		ExtraContext: s.extraContext,
		PresetID:     s.presetID,
		Feedback:     s.feedback,
		UpdatedAt:    s.updatedAt,
	}
	if s.song != nil {
		cp := s.song.Clone()
		snap.Song = &cp
	}
	return snap
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}
