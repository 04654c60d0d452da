package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hiring-bot/api/internal/llm"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Engine struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	httpc       *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey:      strings.TrimSpace(key),
		Model:       strings.TrimSpace(model),
		BaseURL:     defaultBaseURL,
		Temperature: 0.7,
		httpc:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "gpt" }

func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) GenerateText(ctx context.Context, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", llm.Transport(e.Name(), errors.New("OPENAI_API_KEY is empty"))
	}

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{"role": "system", "content": llm.SystemInstruction},
			map[string]any{"role": "user", "content": prompt},
		},
		"temperature": e.Temperature,
	}
	payload, _ := json.Marshal(body)

	url := strings.TrimRight(e.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", llm.Transport(e.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", llm.Transport(e.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", llm.Transport(e.Name(), fmt.Errorf("openai %d: %s", resp.StatusCode, strings.TrimSpace(string(x))))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", llm.Transport(e.Name(), fmt.Errorf("decode response: %w", err))
	}
	if len(raw.Choices) == 0 {
		return "", llm.Empty(e.Name())
	}
	out := strings.TrimSpace(raw.Choices[0].Message.Content)
	if out == "" {
		return "", llm.Empty(e.Name())
	}
	return out, nil
}
