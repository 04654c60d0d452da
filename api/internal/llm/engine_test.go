package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named string

func (n named) Name() string     { return string(n) }
func (n named) GetModel() string { return "m" }
func (n named) GenerateText(context.Context, string) (string, error) {
	return string(n), nil
}

func TestEnginesPick(t *testing.T) {
	e := &Engines{Gemini: named("gemini")}

	g, err := e.Pick("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", g.Name())

	_, err = e.Pick("gpt")
	assert.Error(t, err)
	_, err = e.Pick("deepseek")
	assert.Error(t, err)

	e.OpenAI = named("gpt")
	g, err = e.Pick("OpenAI")
	require.NoError(t, err)
	assert.Equal(t, "gpt", g.Name())
}

func TestAsGenerationError(t *testing.T) {
	assert.Nil(t, AsGenerationError(nil))

	ge := AsGenerationError(errors.New("dial tcp: refused"))
	assert.Equal(t, KindTransport, ge.Kind)
	assert.Contains(t, ge.Error(), "refused")

	orig := Empty("gemini")
	wrapped := AsGenerationError(errors.Join(errors.New("ctx"), orig))
	assert.Same(t, orig, wrapped)
	assert.Equal(t, "generation (gemini) empty: empty response", orig.Error())
}
