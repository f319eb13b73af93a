package llm

import "github.com/Conceptual-Machines/singalong-genie/internal/models"

const songSchemaName = "sing_along_song"

// GetSongOutputSchema returns the JSON schema for a generated song.
// Every property is required and additionalProperties is false so the same schema
// satisfies OpenAI strict mode and converts cleanly for Gemini.
func GetSongOutputSchema() map[string]any {
	partTypes := make([]string, 0, len(models.PartTypes()))
	for _, t := range models.PartTypes() {
		partTypes = append(partTypes, string(t))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"mood":  map[string]any{"type": "string"},
			"tempo": map[string]any{"type": "string"},
			"tips":  map[string]any{"type": "string"},
			"parts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": partTypes,
						},
						"lines": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
					"required":             []string{"type", "lines"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"title", "mood", "tempo", "tips", "parts"},
		"additionalProperties": false,
	}
}

// SongOutputSchema wraps the song schema for a GenerationRequest
func SongOutputSchema() *OutputSchema {
	return &OutputSchema{
		Name:        songSchemaName,
		Description: "A sing-along song with title, mood, tempo, singer tips and labelled parts",
		Schema:      GetSongOutputSchema(),
	}
}
