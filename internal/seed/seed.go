package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"movietype-quiz/internal/models"
)

// catalogFile is the on-disk layout accepted by LoadFile.
type catalogFile struct {
	Dimensions []models.DimensionSeed `yaml:"dimensions"`
}

// LoadFile reads a curated catalog from YAML. An empty path returns the
// built-in catalog.
func LoadFile(path string) ([]models.DimensionSeed, error) {
	if path == "" {
		return Catalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) ([]models.DimensionSeed, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := Validate(f.Dimensions); err != nil {
		return nil, err
	}
	return f.Dimensions, nil
}

// Validate checks labels, option texts and name uniqueness.
func Validate(dims []models.DimensionSeed) error {
	if len(dims) == 0 {
		return errors.New("catalog has no dimensions")
	}
	names := map[string]bool{}
	for i, d := range dims {
		name := strings.TrimSpace(d.Name)
		switch {
		case name == "":
			return fmt.Errorf("dimension %d: name is required", i)
		case strings.TrimSpace(d.HighLabel) == "" || strings.TrimSpace(d.LowLabel) == "":
			return fmt.Errorf("dimension %q: high and low labels are required", name)
		case names[name]:
			return fmt.Errorf("dimension %q: duplicate name", name)
		}
		names[name] = true
		for j, q := range d.Questions {
			if strings.TrimSpace(q.Prompt) == "" {
				return fmt.Errorf("dimension %q question %d: prompt is required", name, j)
			}
			if strings.TrimSpace(q.HighText) == "" || strings.TrimSpace(q.LowText) == "" {
				return fmt.Errorf("dimension %q question %d: both option texts are required", name, j)
			}
		}
	}
	return nil
}

// Catalog returns the built-in movie type dimensions and questions, in
// curated order.
func Catalog() []models.DimensionSeed {
	return []models.DimensionSeed{
		{
			Dimension: models.Dimension{
				Name:        "Narrative Preference",
				HighLabel:   "Plot",
				LowLabel:    "Atmosphere",
				Description: "Measures preference between plot-driven narratives and atmospheric experiences",
			},
			Questions: []models.Question{
				{Prompt: "When watching a film, what matters more to you?", HighText: "A well-structured story with clear progression", LowText: "The mood, visuals, and overall feeling"},
				{Prompt: "Which would you rather watch?", HighText: "A tightly-plotted thriller that keeps you guessing", LowText: "A dreamy film that washes over you like a wave"},
				{Prompt: "What do you value more in cinema?", HighText: "Clever plot twists and satisfying resolutions", LowText: "Beautiful imagery and emotional resonance"},
			},
		},
		{
			Dimension: models.Dimension{
				Name:        "Tonal Inclination",
				HighLabel:   "Whimsy",
				LowLabel:    "Gravitas",
				Description: "Distinguishes between preference for lighter, whimsical works versus serious, weighty films",
			},
			Questions: []models.Question{
				{Prompt: "Which type of film speaks to you more?", HighText: "A playful comedy that delights in life's absurdities", LowText: "A serious drama that explores life's complexities"},
				{Prompt: "What's your preferred emotional experience?", HighText: "Being entertained and uplifted", LowText: "Being moved and challenged"},
				{Prompt: "Which director's approach resonates more?", HighText: "Wes Anderson's quirky, stylized worlds", LowText: "Ingmar Bergman's philosophical explorations"},
			},
		},
		{
			Dimension: models.Dimension{
				Name:        "Viewing Perspective",
				HighLabel:   "External",
				LowLabel:    "Internal",
				Description: "Captures preference for objective, observational storytelling versus subjective, character-focused narratives",
			},
			Questions: []models.Question{
				{Prompt: "How do you prefer to experience a story?", HighText: "Observing events unfold from the outside", LowText: "Deep diving into characters' inner worlds"},
				{Prompt: "Which approach interests you more?", HighText: "Seeing how events affect multiple characters", LowText: "Following one character's intimate journey"},
				{Prompt: "What's more important to you?", HighText: "Understanding what happened", LowText: "Understanding how it felt"},
			},
		},
		{
			Dimension: models.Dimension{
				Name:        "Interpretive Depth",
				HighLabel:   "Explicit",
				LowLabel:    "Ambiguous",
				Description: "Measures appreciation for straightforward versus layered, ambiguous meanings",
			},
			Questions: []models.Question{
				{Prompt: "How do you like stories to end?", HighText: "With clear resolution and answers", LowText: "With room for interpretation"},
				{Prompt: "What's more satisfying?", HighText: "Understanding exactly what the film means", LowText: "Finding your own meaning in the film"},
				{Prompt: "Which viewing experience do you prefer?", HighText: "Following a clear, direct narrative", LowText: "Piecing together subtle meanings and symbols"},
			},
		},
	}
}
