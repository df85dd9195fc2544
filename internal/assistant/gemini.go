package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/kartoza/citylens/internal/fetch"
)

// DefaultGeminiBaseURL is the Gemini REST endpoint root
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

const (
	chatTemperature    = 0.7
	preciseTemperature = 0.3
)

// GeminiResponder generates replies through the Gemini REST API
type GeminiResponder struct {
	apiKey    string
	model     string
	proModel  string
	maxTokens int
	baseURL   string
	fetcher   *fetch.Client
}

// NewGeminiResponder builds a Gemini-backed responder. model handles
// chat, proModel the low-temperature generation calls.
func NewGeminiResponder(apiKey, model, proModel string, maxTokens int, fetcher *fetch.Client) *GeminiResponder {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &GeminiResponder{
		apiKey:    apiKey,
		model:     model,
		proModel:  proModel,
		maxTokens: maxTokens,
		baseURL:   DefaultGeminiBaseURL,
		fetcher:   fetcher,
	}
}

// Name identifies the provider in responses and logs
func (g *GeminiResponder) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Respond sends the conversation with the system instruction and
// returns the model's reply
func (g *GeminiResponder) Respond(ctx context.Context, system string, history []Message, question string) (string, error) {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: msg.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: question}}})

	req := geminiRequest{
		Contents:          contents,
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     chatTemperature,
			MaxOutputTokens: g.maxTokens,
		},
	}
	return g.generate(ctx, g.model, req)
}

// Generate runs a single-prompt completion. precise switches to the
// pro model with a low temperature for recommendation-style output.
func (g *GeminiResponder) Generate(ctx context.Context, prompt string, precise bool) (string, error) {
	model := g.model
	temperature := chatTemperature
	if precise {
		model = g.proModel
		temperature = preciseTemperature
	}
	req := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{Temperature: temperature},
	}
	return g.generate(ctx, model, req)
}

func (g *GeminiResponder) generate(ctx context.Context, model string, req geminiRequest) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)

	var resp geminiResponse
	if err := g.fetcher.PostJSON(ctx, url, req, &resp); err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty reply")
	}
	return text, nil
}
