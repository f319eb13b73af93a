package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/songio"
)

const (
	defaultFeedback    = "Please polish the current draft and ensure it follows the style."
	defaultRefineTheme = "Maintain existing theme."
)

// Builder builds the user instruction for new and refined songs
type Builder struct {
	newSong    *template.Template
	refineSong *template.Template
}

type newSongData struct {
	Prompt       string
	ExtraContext string
	Preset       models.Preset
}

type refineSongData struct {
	Prompt       string
	ExtraContext string
	Preset       models.Preset
	Draft        string
	Feedback     string
}

// NewPromptBuilder parses the embedded templates
func NewPromptBuilder(loader *Loader) (*Builder, error) {
	newSrc, err := loader.GetNewSongTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load new song template: %w", err)
	}
	refineSrc, err := loader.GetRefineSongTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load refine template: %w", err)
	}

	newTmpl, err := template.New("new_song").Parse(newSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse new song template: %w", err)
	}
	refineTmpl, err := template.New("refine_song").Parse(refineSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse refine template: %w", err)
	}

	return &Builder{newSong: newTmpl, refineSong: refineTmpl}, nil
}

// BuildUserPrompt renders the instruction for a generation context.
// A context with a previous song is rendered in refine mode.
func (b *Builder) BuildUserPrompt(gc models.GenerationContext) (string, error) {
	var buf bytes.Buffer

	if !gc.IsRefinement() {
		data := newSongData{
			Prompt:       gc.Prompt,
			ExtraContext: strings.TrimSpace(gc.ExtraContext),
			Preset:       gc.Preset,
		}
		if err := b.newSong.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("failed to render new song prompt: %w", err)
		}
		return buf.String(), nil
	}

	draft, err := songio.ExportJSON(*gc.Previous)
	if err != nil {
		return "", fmt.Errorf("failed to serialize draft: %w", err)
	}

	data := refineSongData{
		Prompt:       orDefault(gc.Prompt, defaultRefineTheme),
		ExtraContext: strings.TrimSpace(gc.ExtraContext),
		Preset:       gc.Preset,
		Draft:        string(draft),
		Feedback:     orDefault(gc.Feedback, defaultFeedback),
	}
	if err := b.refineSong.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render refine prompt: %w", err)
	}
	return buf.String(), nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
