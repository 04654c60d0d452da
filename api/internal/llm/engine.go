package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SystemInstruction is shared by every engine.
const SystemInstruction = `You are TalentScout, a friendly and professional hiring assistant for a technology recruitment agency.
Stay on the topic of candidate screening. Write plain text only, without Markdown headings or code fences.`

// Generator is the text-generation capability consumed by the interview flow.
type Generator interface {
	Name() string
	GetModel() string
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindEmpty       ErrorKind = "empty"
	KindUnparseable ErrorKind = "unparseable"
)

// GenerationError is the single failure type of a Generator.
type GenerationError struct {
	Kind   ErrorKind
	Engine string
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("generation")
	if e.Engine != "" {
		b.WriteString(" (" + e.Engine + ")")
	}
	fmt.Fprintf(&b, " %s: %s", e.Kind, e.Reason)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

func Transport(engine string, err error) *GenerationError {
	return &GenerationError{Kind: KindTransport, Engine: engine, Reason: "request failed", Err: err}
}

func Empty(engine string) *GenerationError {
	return &GenerationError{Kind: KindEmpty, Engine: engine, Reason: "empty response"}
}

// AsGenerationError normalizes any error into a GenerationError; plain
// errors are treated as transport failures.
func AsGenerationError(err error) *GenerationError {
	if err == nil {
		return nil
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	return Transport("", err)
}

type Engines struct {
	Gemini Generator
	OpenAI Generator
}

// Pick returns the engine configured under name.
func (e *Engines) Pick(name string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gemini":
		if e.Gemini == nil {
			return nil, errors.New("gemini engine is not configured")
		}
		return e.Gemini, nil
	case "gpt", "openai":
		if e.OpenAI == nil {
			return nil, errors.New("openai engine is not configured")
		}
		return e.OpenAI, nil
	default:
		return nil, fmt.Errorf("unknown llm engine %q; use 'gemini' or 'gpt'", name)
	}
}
