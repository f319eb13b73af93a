// Package songio converts songs to and from their downloadable file formats
package songio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/Conceptual-Machines/singalong-genie/internal/models"
)

const (
	SuffixJSON = "_data.json"
	SuffixHTML = "_lyrics.html"
)

var (
	ErrImportInvalidJSON   = errors.New("invalid JSON format")
	ErrImportMissingFields = errors.New("missing title or parts")
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportJSON serializes the song with two-space indentation. Text is written as-is:
// "&", "<" and ">" are not escaped.
func ExportJSON(song models.Song) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(song); err != nil {
		return nil, fmt.Errorf("failed to encode song: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// FileName builds a download name from the title: whitespace runs become "_"
func FileName(title, suffix string) string {
	return whitespaceRun.ReplaceAllString(title, "_") + suffix
}

// ImportJSON parses a previously exported song. Only the presence of a truthy
// "title" and "parts" is checked; parts are not validated.
func ImportJSON(data []byte) (models.Song, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.Song{}, fmt.Errorf("%w: %v", ErrImportInvalidJSON, err)
	}

	if !truthy(fields["title"]) || !truthy(fields["parts"]) {
		return models.Song{}, ErrImportMissingFields
	}

	var song models.Song
	if err := json.Unmarshal(data, &song); err != nil {
		return models.Song{}, fmt.Errorf("%w: %v", ErrImportInvalidJSON, err)
	}
	return song, nil
}

// truthy mirrors JavaScript truthiness for a raw JSON value.
// Empty arrays and objects are truthy.
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	if v[0] == '-' || (v[0] >= '0' && v[0] <= '9') {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			return f != 0
		}
	}
	return true
}
