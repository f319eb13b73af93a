package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/singalong-genie/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the songwriter persona and style rules
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetNewSongTemplate loads the template for first-time generation
func (l *Loader) GetNewSongTemplate() (string, error) {
	return strings.TrimSpace(string(embedded.NewSongTmpl)), nil
}

// GetRefineSongTemplate loads the template for polishing an existing draft
func (l *Loader) GetRefineSongTemplate() (string, error) {
	return strings.TrimSpace(string(embedded.RefineSongTmpl)), nil
}
