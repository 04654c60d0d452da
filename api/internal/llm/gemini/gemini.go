package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"hiring-bot/api/internal/llm"
)

type Engine struct {
	APIKey      string
	Model       string
	Temperature float32
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey:      strings.TrimSpace(apiKey),
		Model:       strings.TrimSpace(model),
		Temperature: 0.7,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// GenerateText sends a single-turn prompt. Retries are the caller's concern.
func (e *Engine) GenerateText(ctx context.Context, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", llm.Transport(e.Name(), errors.New("GEMINI_API_KEY is empty"))
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", llm.Transport(e.Name(), err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", llm.Transport(e.Name(), fmt.Errorf("model %q is nil", e.Model))
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(e.Temperature),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(llm.SystemInstruction)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("gemini: generate (%s): %v", e.Model, err)
		return "", llm.Transport(e.Name(), err)
	}
	txt := strings.TrimSpace(firstText(resp))
	if txt == "" {
		return "", llm.Empty(e.Name())
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
