package interview

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiring-bot/api/internal/llm"
)

func TestParseQuestionsDropsNoise(t *testing.T) {
	qs, err := ParseQuestions("[Easy] What is a list?\n[Hard] Explain CAP theorem.\nnoise line", 0)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "[Easy] What is a list?", qs[0].RawText)
	assert.Equal(t, Easy, qs[0].Difficulty)
	assert.Equal(t, Hard, qs[1].Difficulty)
	assert.Equal(t, "Explain CAP theorem.", qs[1].DisplayText)
}

func TestParseQuestionsCapsAtMax(t *testing.T) {
	raw := "```text\nHere you go:\n[Easy] A?\n[Medium] B?\n[Hard] C?\n[Hard] D?\n```"
	qs, err := ParseQuestions(raw, 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, "C?", qs[2].DisplayText)
}

func TestParseQuestionsEmptyIsUnparseable(t *testing.T) {
	_, err := ParseQuestions("Sure! Here are some questions:\n1. What is Go?\n", 3)
	var ge *llm.GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, llm.KindUnparseable, ge.Kind)
}

func TestAnnotate(t *testing.T) {
	q := Annotate("[Medium] Explain X")
	assert.Equal(t, Medium, q.Difficulty)
	assert.Equal(t, 600, q.SuggestedSeconds)
	assert.Equal(t, "Explain X", q.DisplayText)

	cases := []struct {
		raw     string
		diff    Difficulty
		seconds int
		display string
	}{
		{"[easy]: What is a goroutine?", Easy, 300, "What is a goroutine?"},
		{"1. [HARD] Design a rate limiter.", Hard, 900, "Design a rate limiter."},
		{"Explain channels [Medium]", Medium, 600, "Explain channels"},
		{"[Go] What does defer do?", Unspecified, 600, "[Go] What does defer do?"},
		{"[Hard] Compare [Easy] and [Medium] tags", Hard, 900, "Compare [Easy] and [Medium] tags"},
		{"**[Easy]** What is a map?", Easy, 300, "What is a map?"},
		{"- __[Medium]__: Explain *escape analysis*.", Medium, 600, "Explain *escape analysis*."},
		{"Why use sync.Pool? **[Hard]**", Hard, 900, "Why use sync.Pool?"},
	}
	for _, c := range cases {
		q := Annotate(c.raw)
		assert.Equal(t, c.diff, q.Difficulty, c.raw)
		assert.Equal(t, c.seconds, q.SuggestedSeconds, c.raw)
		assert.Equal(t, c.display, q.DisplayText, c.raw)
		assert.Equal(t, c.raw, q.RawText)
	}
}

func TestDisplay(t *testing.T) {
	q := Annotate("[Hard] Explain CAP theorem.")
	assert.Equal(t, "Question 2/3 [Hard]: Explain CAP theorem.\n\n(Suggested time: 900 seconds)", q.Display(2, 3))

	q = Annotate("[Go] What is a slice?")
	assert.Equal(t, "Question 1/3 []: [Go] What is a slice?\n\n(Suggested time: 600 seconds)", q.Display(1, 3))
}
