package models

import (
	"errors"
	"fmt"
)

// PartType labels a section of a song
type PartType string

const (
	PartVerse  PartType = "Verse"
	PartChorus PartType = "Chorus"
	PartBridge PartType = "Bridge"
	PartOutro  PartType = "Outro"
)

// NewPartLineCount is the number of blank lines an appended part starts with
const NewPartLineCount = 4

var (
	ErrPartIndex       = errors.New("part index out of range")
	ErrLineIndex       = errors.New("line index out of range")
	ErrInvalidPartType = errors.New("invalid part type")
)

// PartTypes returns the allowed part kinds in display order
func PartTypes() []PartType {
	return []PartType{PartVerse, PartChorus, PartBridge, PartOutro}
}

// Valid reports whether t is one of the four known kinds
func (t PartType) Valid() bool {
	switch t {
	case PartVerse, PartChorus, PartBridge, PartOutro:
		return true
	}
	return false
}

// SongPart is one labelled section of a song
type SongPart struct {
	Type  PartType `json:"type"`
	Lines []string `json:"lines"`
}

// Song is the generated (and user-edited) song document
type Song struct {
	Title string     `json:"title"`
	Parts []SongPart `json:"parts"`
	Mood  string     `json:"mood"`
	Tempo string     `json:"tempo"`
	Tips  string     `json:"tips"`
}

// Clone returns a deep copy of the song
func (s Song) Clone() Song {
	out := s
	if s.Parts != nil {
		out.Parts = make([]SongPart, len(s.Parts))
		for i, p := range s.Parts {
			out.Parts[i] = p.clone()
		}
	}
	return out
}

func (p SongPart) clone() SongPart {
	out := p
	if p.Lines != nil {
		out.Lines = append([]string(nil), p.Lines...)
	}
	return out
}

// withParts returns s with a fresh parts slice so the caller can replace entries
// without touching the receiver.
func (s Song) withParts() Song {
	out := s
	out.Parts = append([]SongPart(nil), s.Parts...)
	return out
}

func (s Song) WithTitle(title string) Song {
	out := s.withParts()
	out.Title = title
	return out
}

func (s Song) WithMood(mood string) Song {
	out := s.withParts()
	out.Mood = mood
	return out
}

func (s Song) WithTempo(tempo string) Song {
	out := s.withParts()
	out.Tempo = tempo
	return out
}

func (s Song) WithTips(tips string) Song {
	out := s.withParts()
	out.Tips = tips
	return out
}

// WithLine replaces a single line of a single part
func (s Song) WithLine(partIdx, lineIdx int, text string) (Song, error) {
	if partIdx < 0 || partIdx >= len(s.Parts) {
		return s, fmt.Errorf("%w: %d", ErrPartIndex, partIdx)
	}
	part := s.Parts[partIdx]
	if lineIdx < 0 || lineIdx >= len(part.Lines) {
		return s, fmt.Errorf("%w: %d (part %d has %d lines)", ErrLineIndex, lineIdx, partIdx, len(part.Lines))
	}

	lines := append([]string(nil), part.Lines...)
	lines[lineIdx] = text

	out := s.withParts()
	out.Parts[partIdx] = SongPart{Type: part.Type, Lines: lines}
	return out, nil
}

// WithPartType changes the kind of a part, keeping its lines
func (s Song) WithPartType(partIdx int, t PartType) (Song, error) {
	if !t.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidPartType, t)
	}
	if partIdx < 0 || partIdx >= len(s.Parts) {
		return s, fmt.Errorf("%w: %d", ErrPartIndex, partIdx)
	}

	out := s.withParts()
	out.Parts[partIdx] = SongPart{Type: t, Lines: s.Parts[partIdx].Lines}
	return out, nil
}

// WithAppendedPart adds an empty verse to the end of the song
func (s Song) WithAppendedPart() Song {
	out := s.withParts()
	out.Parts = append(out.Parts, SongPart{
		Type:  PartVerse,
		Lines: make([]string, NewPartLineCount),
	})
	return out
}

// ValidateShape checks the structural contract of a generated song.
// Imported documents are not held to it.
func (s Song) ValidateShape() error {
	if len(s.Parts) == 0 {
		return errors.New("song has no parts")
	}
	for i, p := range s.Parts {
		if !p.Type.Valid() {
			return fmt.Errorf("part %d: %w: %q", i, ErrInvalidPartType, p.Type)
		}
	}
	return nil
}

// GenerationContext bundles everything a single generate or refine call needs
type GenerationContext struct {
	Prompt       string
	Preset       Preset
	Previous     *Song
	Feedback     string
	ExtraContext string
}

// IsRefinement reports whether the call polishes an existing draft
func (g GenerationContext) IsRefinement() bool {
	return g.Previous != nil
}
