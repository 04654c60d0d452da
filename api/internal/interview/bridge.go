package interview

import (
	"context"
	"fmt"
	"log"
	"strings"

	"hiring-bot/api/internal/intake"
	"hiring-bot/api/internal/llm"
	"hiring-bot/api/internal/util"
)

const (
	ContinuePhrase = "Let's move on to the next question."
	ClosingPhrase  = "That was the last question. Thank you for completing the technical screening! Our recruiting team will review your answers and get back to you about the next steps."
)

const maxAnswerRunes = 2000

// Bridge is the acknowledgment appended after an answer.
type Bridge struct {
	Text     string
	Closing  bool
	Fallback bool
}

// Bridger produces the neutral acknowledgment + transition after each answer.
type Bridger struct {
	Gen   llm.Generator
	Retry RetryPolicy
}

func NewBridger(gen llm.Generator, retry RetryPolicy) *Bridger {
	return &Bridger{Gen: gen, Retry: retry}
}

// Phrase picks the transition phrase for the 0-based index.
func Phrase(index, total int) (string, bool) {
	if index == total-1 {
		return ClosingPhrase, true
	}
	return ContinuePhrase, false
}

func (b *Bridger) Prompt(p intake.Profile, q Question, answer, phrase string) string {
	var sb strings.Builder
	name := p.First("name")
	if name == "" {
		name = "The candidate"
	}
	fmt.Fprintf(&sb, "%s has just answered a technical interview question.\n\n", name)
	fmt.Fprintf(&sb, "Question: %s\n", q.DisplayText)
	fmt.Fprintf(&sb, "Answer: %s\n\n", util.Truncate(strings.TrimSpace(answer), maxAnswerRunes))
	sb.WriteString("Write exactly one short, neutral sentence acknowledging that the answer was received. ")
	sb.WriteString("Do NOT judge whether the answer is correct, do not give feedback, hints or the right answer. ")
	fmt.Fprintf(&sb, "Then end your reply with this sentence, unchanged: %q", phrase)
	return sb.String()
}

// Bridge never fails: when generation is unusable it falls back to
// "Okay. <phrase>".
func (b *Bridger) Bridge(ctx context.Context, p intake.Profile, q Question, answer string, index, total int) Bridge {
	phrase, closing := Phrase(index, total)
	out := Bridge{Closing: closing}

	if b.Gen != nil {
		prompt := b.Prompt(p, q, answer, phrase)
		var txt string
		err := b.Retry.Do(ctx, func(ctx context.Context) error {
			s, err := b.Gen.GenerateText(ctx, prompt)
			if err != nil {
				return llm.AsGenerationError(err)
			}
			if s = strings.TrimSpace(s); s == "" {
				return llm.Empty(b.Gen.Name())
			}
			txt = s
			return nil
		})
		if err == nil {
			if !strings.Contains(txt, phrase) {
				txt = strings.TrimSpace(txt) + " " + phrase
			}
			out.Text = txt
			return out
		}
		log.Printf("interview: bridge for question %d/%d fell back: %v", index+1, total, err)
	}

	out.Text = "Okay. " + phrase
	out.Fallback = true
	return out
}
