package models

// Category groups presets in the style picker
type Category string

const (
	CategoryKids  Category = "For Kids"
	CategoryGroup Category = "Group Sing-Alongs"
	CategorySolo  Category = "Solo Singing"
)

// Preset is a named bundle of rhythm and rhyme constraints
type Preset struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	RhythmStyle string   `json:"rhythmStyle"`
	RhymeScheme string   `json:"rhymeScheme"`
}
