// Package presets holds the static catalog of song styles
package presets

import "github.com/Conceptual-Machines/singalong-genie/internal/models"

// DefaultSelectionID is the preset the generation form starts with
const DefaultSelectionID = "pub-anthem"

// Group is a category heading with its presets in catalog order
type Group struct {
	Category models.Category `json:"category"`
	Presets  []models.Preset `json:"presets"`
}

var catalog = []models.Preset{
	// For kids
	{
		ID:          "nursery",
		Category:    models.CategoryKids,
		Name:        "Classic Nursery",
		Description: "Bouncy, simple AABB rhymes. Great for kids or playful vibes.",
		Icon:        "fa-child-reaching",
		RhythmStyle: `4/4 steady bounce, similar to "Twinkle Twinkle"`,
		RhymeScheme: "AABB",
	},
	{
		ID:          "animal-safari",
		Category:    models.CategoryKids,
		Name:        "Animal Safari",
		Description: "Energetic and full of sound effects. Great for acting out parts.",
		Icon:        "fa-hippo",
		RhythmStyle: "Fast 2/4 march with breaks for animal noises",
		RhymeScheme: "AABB",
	},
	{
		ID:          "lullaby",
		Category:    models.CategoryKids,
		Name:        "Sweet Lullaby",
		Description: "Gentle, soothing, and slow. Perfect for winding down.",
		Icon:        "fa-moon",
		RhythmStyle: "Soft 3/4 waltz time",
		RhymeScheme: "AAAA or AABB",
	},

	// Group sing-alongs
	{
		ID:          "pub-anthem",
		Category:    models.CategoryGroup,
		Name:        "Pub Anthem",
		Description: "Boisterous, stompy 4/4 beats. Easy to shout and belt out.",
		Icon:        "fa-beer-mug-empty",
		RhythmStyle: "Strong 4/4 downbeats with a chantable chorus",
		RhymeScheme: "ABAB",
	},
	{
		ID:          "campfire",
		Category:    models.CategoryGroup,
		Name:        "Campfire Folk",
		Description: "Mellow, acoustic-style storytelling with a repetitive hook.",
		Icon:        "fa-fire",
		RhythmStyle: "Waltz-like or gentle 4/4 strumming",
		RhymeScheme: "AABB or ABAB",
	},
	{
		ID:          "sea-shanty",
		Category:    models.CategoryGroup,
		Name:        "Sea Shanty",
		Description: "Call-and-response style. Rhythmic and gritty for a hearty group.",
		Icon:        "fa-anchor",
		RhythmStyle: `Heavy 4/4 "stomp-clap" rhythm`,
		RhymeScheme: "AABB with refrain",
	},
	{
		ID:          "marching-cadence",
		Category:    models.CategoryGroup,
		Name:        "Troop Cadence",
		Description: "Strict rhythm, high energy, used for keeping pace and morale.",
		Icon:        "fa-person-military-pointing",
		RhythmStyle: "Strict 4/4 left-right-left marching beat",
		RhymeScheme: "AABB (Call & Response)",
	},

	// Solo singing
	{
		ID:          "pop-bop",
		Category:    models.CategorySolo,
		Name:        "Upbeat Pop",
		Description: "High energy, syncopated rhythms, and a catchy earworm chorus.",
		Icon:        "fa-radio",
		RhythmStyle: "Driving 4/4 with syncopation in the verses",
		RhymeScheme: "AABB CC",
	},
	{
		ID:          "power-ballad",
		Category:    models.CategorySolo,
		Name:        "Power Ballad",
		Description: "Dramatic, emotional, and building to a huge crescendo.",
		Icon:        "fa-heart-pulse",
		RhythmStyle: "Slow 4/4 that doubles in intensity at the chorus",
		RhymeScheme: "ABAB",
	},
	{
		ID:          "jazz-crooner",
		Category:    models.CategorySolo,
		Name:        "Jazz Crooner",
		Description: "Smooth, swingy, and sophisticated. For the suave shower singer.",
		Icon:        "fa-saxophone",
		RhythmStyle: `Swing 4/4 with "walking" bass feel`,
		RhymeScheme: "AABA",
	},
	{
		ID:          "country-story",
		Category:    models.CategorySolo,
		Name:        "Country Story",
		Description: "Clear storytelling with a twang and a heart-on-sleeve hook.",
		Icon:        "fa-hat-cowboy",
		RhythmStyle: `Steady 4/4 "boom-chicka" rhythm`,
		RhymeScheme: "AABB or ABAB",
	},
}

var byID = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, p := range catalog {
		idx[p.ID] = i
	}
	return idx
}()

// All returns every preset in catalog order
func All() []models.Preset {
	return append([]models.Preset(nil), catalog...)
}

// Default is the fallback used for unknown ids
func Default() models.Preset {
	return catalog[0]
}

// Find returns the preset with the given id, if any
func Find(id string) (models.Preset, bool) {
	i, ok := byID[id]
	if !ok {
		return models.Preset{}, false
	}
	return catalog[i], true
}

// Lookup returns the preset with the given id, or Default when it is unknown
func Lookup(id string) models.Preset {
	if p, ok := Find(id); ok {
		return p
	}
	return Default()
}

// Grouped returns the catalog grouped by category, keeping first-appearance order
func Grouped() []Group {
	var groups []Group
	pos := make(map[models.Category]int)
	for _, p := range catalog {
		i, ok := pos[p.Category]
		if !ok {
			i = len(groups)
			pos[p.Category] = i
			groups = append(groups, Group{Category: p.Category})
		}
		groups[i].Presets = append(groups[i].Presets, p)
	}
	return groups
}
