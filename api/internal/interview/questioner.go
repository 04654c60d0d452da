package interview

import (
	"context"
	"fmt"
	"log"
	"strings"

	"hiring-bot/api/internal/intake"
	"hiring-bot/api/internal/llm"
)

const DefaultQuestionCount = 3

// Questioner asks the generator for tagged technical questions.
type Questioner struct {
	Gen   llm.Generator
	Count int
	Retry RetryPolicy
}

func NewQuestioner(gen llm.Generator, count int, retry RetryPolicy) *Questioner {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	return &Questioner{Gen: gen, Count: count, Retry: retry}
}

func (q *Questioner) Prompt(p intake.Profile) string {
	var b strings.Builder
	b.WriteString("You are a technical interviewer screening a job candidate.\n")
	fmt.Fprintf(&b, "Position: %s\n", orDash(p.String("position")))
	fmt.Fprintf(&b, "Years of experience: %s\n", orDash(p.String("years_of_experience")))
	fmt.Fprintf(&b, "Tech stack: %s\n\n", orDash(p.String("tech_stack")))
	fmt.Fprintf(&b, "Write exactly %d technical questions that assess the candidate's proficiency in the technologies listed, ", q.Count)
	b.WriteString("matching the difficulty to their experience.\n")
	b.WriteString("Start every question with a difficulty tag in square brackets: [Easy], [Medium] or [Hard].\n")
	b.WriteString("Put each question on its own line. Do not number the questions and do not add any other text.")
	return b.String()
}

// Generate returns the parsed questions. Transport failures and unparseable
// output are both retried under the policy.
func (q *Questioner) Generate(ctx context.Context, p intake.Profile) ([]Question, error) {
	if q.Gen == nil {
		return nil, &llm.GenerationError{Kind: llm.KindTransport, Reason: "no generator configured"}
	}
	prompt := q.Prompt(p)

	var out []Question
	err := q.Retry.Do(ctx, func(ctx context.Context) error {
		txt, err := q.Gen.GenerateText(ctx, prompt)
		if err != nil {
			return llm.AsGenerationError(err)
		}
		qs, err := ParseQuestions(txt, q.Count)
		if err != nil {
			log.Printf("interview: %s returned no tagged questions (%d bytes)", q.Gen.Name(), len(txt))
			return err
		}
		out = qs
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, llm.AsGenerationError(err)
	}
	return out, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
