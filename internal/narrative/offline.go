package narrative

import (
	"context"

	"movietype-quiz/internal/models"
)

// DefaultArchetype is used for any code without a curated archetype.
var DefaultArchetype = models.Archetype{
	Title:       "The Cinematic Explorer",
	Description: "Your unique approach to cinema combines multiple perspectives, making you a versatile and nuanced film enthusiast. You appreciate both the technical mastery and emotional depth of great filmmaking, finding your own special way to connect with each story.",
}

// FallbackRecommendations is served whenever generated ones are unavailable.
var FallbackRecommendations = models.Recommendations{
	Films: []string{
		"2001: A Space Odyssey",
		"In the Mood for Love",
		"Seven Samurai",
		"The Grand Budapest Hotel",
		"Persona",
	},
	Directors: []string{
		"Stanley Kubrick",
		"Wong Kar-wai",
		"Akira Kurosawa",
		"Agnès Varda",
		"Ingmar Bergman",
	},
}

var FallbackQuote = models.Quote{
	Text:        "Every story is unique, just like every viewer.",
	Attribution: "Movie Type",
}

// archetypes is keyed by codes over Plot/Atmosphere, Whimsy/Gravitas,
// External/Internal, Explicit/Ambiguous.
var archetypes = map[string]models.Archetype{
	"AGIA": {
		Title:       "The Visionary Explorer",
		Description: "You are drawn to films that push the boundaries of imagination and artistry. Like a cosmic traveler through the cinematic universe, you seek out stories that challenge conventional narratives and embrace experimental storytelling.",
	},
	"PGIA": {
		Title:       "The Philosophical Dreamer",
		Description: "Cinema is your gateway to deeper understanding. You gravitate towards films that weave complex narratives with profound philosophical undertones, and your analytical mind delights in decoding layered meanings.",
	},
	"AGEE": {
		Title:       "The Artistic Realist",
		Description: "You find beauty in the raw authenticity of cinema. While appreciating artistic excellence, you connect most deeply with stories that mirror life's genuine moments.",
	},
	"PGEA": {
		Title:       "The Contemplative Observer",
		Description: "Your approach to cinema is both introspective and analytical. Like a skilled detective of human nature, you uncover hidden meanings in every frame.",
	},
	"AWIA": {
		Title:       "The Aesthetic Adventurer",
		Description: "For you, cinema is a journey through visual poetry. Your adventurous spirit leads you to beauty in both experimental art films and emotionally resonant narratives.",
	},
	"AGIE": {
		Title:       "The Emotional Voyager",
		Description: "You navigate cinema through your heart while appreciating its artistic depths. Every viewing is a journey of both feeling and aesthetic discovery.",
	},
	"PWEE": {
		Title:       "The Crowd Pleaser",
		Description: "You love a story that moves, a laugh that lands and an ending that ties every thread. Ensemble capers and airtight comedies are your home turf.",
	},
	"PGIE": {
		Title:       "The Authentic Storyteller",
		Description: "You value cinema that speaks to the heart of human experience, told with craft and a clear line from beginning to end.",
	},
}

// ArchetypeFor returns the curated archetype for code or DefaultArchetype.
func ArchetypeFor(code string) models.Archetype {
	if a, ok := archetypes[code]; ok {
		return a
	}
	return DefaultArchetype
}

// Offline is the deterministic generator. It never fails.
type Offline struct{}

func NewOffline() *Offline {
	return &Offline{}
}

func (*Offline) DescribePersonality(_ context.Context, code string) (string, error) {
	return ArchetypeFor(code).Description, nil
}

func (*Offline) Recommend(_ context.Context, _ string, _ map[string]float64) (models.Recommendations, error) {
	return models.Recommendations{
		Films:     append([]string(nil), FallbackRecommendations.Films...),
		Directors: append([]string(nil), FallbackRecommendations.Directors...),
	}, nil
}

func (*Offline) QuoteFor(_ context.Context, _ string, _ string) (models.Quote, error) {
	return FallbackQuote, nil
}
