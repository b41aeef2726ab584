package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"movietype-quiz/internal/models"
)

const DefaultModel = "gemini-2.5-flash"

const systemPrompt = `You are a sophisticated film critic and cinema expert with deep knowledge of film history, theory, and cultural impact. Your task is to analyze movie preferences and create insightful, poetic descriptions of viewing personalities while recommending films that would resonate with each type.

When describing personalities:
- Use elegant, expressive language that evokes the Criterion Collection's tone
- Reference specific film movements, directors, and artistic approaches
- Balance accessibility with sophisticated film knowledge

When making recommendations:
- Suggest both accessible entry points and more challenging deep cuts
- Include a mix of eras and national cinemas`

// contentGenerator is the slice of the genai client used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAI generates narrative content with Google's Gemini API.
type GenAI struct {
	models contentGenerator
	model  string
	log    *zap.Logger
}

func NewGenAI(ctx context.Context, apiKey, model string, log *zap.Logger) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGenAI(client.Models, model, log), nil
}

func newGenAI(models contentGenerator, model string, log *zap.Logger) *GenAI {
	if model == "" {
		model = DefaultModel
	}
	return &GenAI{models: models, model: model, log: log}
}

func (g *GenAI) DescribePersonality(ctx context.Context, code string) (string, error) {
	text, err := g.generate(ctx, fmt.Sprintf("Generate a personality description for movie type: %s", code), "")
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty description", ErrMalformed)
	}
	return text, nil
}

func (g *GenAI) Recommend(ctx context.Context, code string, averages map[string]float64) (models.Recommendations, error) {
	prompt := fmt.Sprintf(`Generate film and director recommendations for movie type: %s, with preferences: %s.
Respond with JSON: {"films": ["..."], "directors": ["..."]}`, code, formatAverages(averages))
	text, err := g.generate(ctx, prompt, "application/json")
	if err != nil {
		return models.Recommendations{}, err
	}
	var recs models.Recommendations
	if err := json.Unmarshal([]byte(stripFences(text)), &recs); err != nil {
		return models.Recommendations{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(recs.Films) == 0 || len(recs.Directors) == 0 {
		return models.Recommendations{}, fmt.Errorf("%w: missing films or directors", ErrMalformed)
	}
	return recs, nil
}

func (g *GenAI) QuoteFor(ctx context.Context, code string, summary string) (models.Quote, error) {
	prompt := fmt.Sprintf(`Pick a short, memorable film quote that captures movie type %s (%s).
Respond with JSON: {"quote": "...", "attribution": "Film (Year)"}`, code, summary)
	text, err := g.generate(ctx, prompt, "application/json")
	if err != nil {
		return models.Quote{}, err
	}
	var q models.Quote
	if err := json.Unmarshal([]byte(stripFences(text)), &q); err != nil {
		return models.Quote{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(q.Text) == "" {
		return models.Quote{}, fmt.Errorf("%w: empty quote", ErrMalformed)
	}
	return q, nil
}

func (g *GenAI) generate(ctx context.Context, prompt, mimeType string) (string, error) {
	temperature := float32(0.7)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temperature,
		ResponseMIMEType:  mimeType,
	}
	g.log.Debug("generating narrative", zap.String("model", g.model), zap.String("mime", mimeType))
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return strings.TrimSpace(responseText(resp)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// stripFences removes a ```json wrapper some models add despite the mime type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func formatAverages(averages map[string]float64) string {
	names := make([]string, 0, len(averages))
	for name := range averages {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.2f", name, averages[name]))
	}
	return strings.Join(parts, ", ")
}
