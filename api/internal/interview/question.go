package interview

import (
	"fmt"
	"regexp"
	"strings"

	"hiring-bot/api/internal/llm"
	"hiring-bot/api/internal/util"
)

type Difficulty string

const (
	Easy        Difficulty = "easy"
	Medium      Difficulty = "medium"
	Hard        Difficulty = "hard"
	Unspecified Difficulty = "unspecified"
)

// Seconds is the suggested time budget for the difficulty.
func (d Difficulty) Seconds() int {
	switch d {
	case Easy:
		return 300
	case Hard:
		return 900
	default:
		return 600
	}
}

// Tag is the capitalized label shown in brackets; empty when unspecified.
func (d Difficulty) Tag() string {
	switch d {
	case Easy:
		return "Easy"
	case Medium:
		return "Medium"
	case Hard:
		return "Hard"
	default:
		return ""
	}
}

// Question is one generated line, annotated with difficulty and time budget.
type Question struct {
	RawText          string     `json:"raw_text"`
	Difficulty       Difficulty `json:"difficulty"`
	DisplayText      string     `json:"display_text"`
	SuggestedSeconds int        `json:"suggested_time_seconds"`
}

var (
	reTagAnchored = regexp.MustCompile(`(?i)^\s*\[(easy|medium|hard)\]`)
	reTagAnywhere = regexp.MustCompile(`(?i)\[(easy|medium|hard)\]`)
	reListMarker  = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s+`)
)

// Annotate locates the difficulty tag (anchored at the start first, then
// anywhere), strips it from the display text and assigns the time budget.
func Annotate(raw string) Question {
	q := Question{RawText: raw, Difficulty: Unspecified}

	loc := reTagAnchored.FindStringSubmatchIndex(raw)
	if loc == nil {
		loc = reTagAnywhere.FindStringSubmatchIndex(raw)
	}
	text := raw
	if loc != nil {
		q.Difficulty = Difficulty(strings.ToLower(raw[loc[2]:loc[3]]))
		// emphasis wrapped around the tag, e.g. **[Easy]**
		before := strings.TrimRight(raw[:loc[0]], "*_")
		after := strings.TrimLeft(raw[loc[1]:], "*_")
		text = before + " " + after
	}
	text = strings.Join(strings.Fields(text), " ")
	text = reListMarker.ReplaceAllString(text, "")
	text = strings.TrimLeft(text, ":-–— ")
	q.DisplayText = strings.TrimSpace(text)
	q.SuggestedSeconds = q.Difficulty.Seconds()
	return q
}

// Display renders the question as shown to the candidate; i is 1-based.
func (q Question) Display(i, total int) string {
	return fmt.Sprintf("Question %d/%d [%s]: %s\n\n(Suggested time: %d seconds)",
		i, total, q.Difficulty.Tag(), q.DisplayText, q.SuggestedSeconds)
}

// ParseQuestions keeps every line carrying a bracketed tag. When max > 0 at
// most max questions are returned. An empty result is a GenerationError of
// kind unparseable.
func ParseQuestions(raw string, max int) ([]Question, error) {
	text := util.StripCodeFences(raw)
	var out []Question
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "[") || !strings.Contains(line, "]") {
			continue
		}
		out = append(out, Annotate(line))
		if max > 0 && len(out) == max {
			break
		}
	}
	if len(out) == 0 {
		return nil, &llm.GenerationError{
			Kind:   llm.KindUnparseable,
			Reason: "no tagged questions in response",
		}
	}
	return out, nil
}
