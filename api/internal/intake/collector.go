package intake

import (
	"errors"
	"fmt"
	"strings"
)

// Step is the outcome of feeding one raw input to the current field.
type Step struct {
	Key      string
	Value    any
	Accepted bool
	// Reply is the next prompt, a clarification, or empty once every field is filled.
	Reply string
	Done  bool
	Err   *ValidationError
}

// Collector walks an ordered descriptor list. It never mutates the profile it
// is given; the caller applies accepted steps.
type Collector struct {
	Fields []FieldDescriptor
}

func NewCollector(fields []FieldDescriptor) *Collector {
	return &Collector{Fields: fields}
}

func (c *Collector) Len() int { return len(c.Fields) }

// Prompt renders the prompt for the field at index.
func (c *Collector) Prompt(index int, p Profile) (string, error) {
	if index < 0 || index >= len(c.Fields) {
		return "", fmt.Errorf("intake: field index %d out of range [0,%d)", index, len(c.Fields))
	}
	return Render(c.Fields[index], p), nil
}

// Step validates raw for the field at index against the in-progress draft.
func (c *Collector) Step(index int, draft Profile, raw string) (Step, error) {
	if index < 0 || index >= len(c.Fields) {
		return Step{}, fmt.Errorf("intake: field index %d out of range [0,%d)", index, len(c.Fields))
	}
	f := c.Fields[index]
	if draft.Has(f.Key) {
		return Step{}, fmt.Errorf("%w: %s", ErrAlreadySet, f.Key)
	}

	v, err := Validate(f.Kind, raw)
	if err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return Step{}, err
		}
		return Step{Key: f.Key, Err: ve, Reply: Clarify(f, ve)}, nil
	}

	st := Step{Key: f.Key, Value: v, Accepted: true}
	next := index + 1
	if next >= len(c.Fields) {
		st.Done = true
		return st, nil
	}
	// the next prompt may reference the value just accepted
	preview := draft.Clone()
	preview[f.Key] = v
	st.Reply = Render(c.Fields[next], preview)
	return st, nil
}

// Clarify builds the field-specific re-prompt for a rejected input.
func Clarify(f FieldDescriptor, ve *ValidationError) string {
	var lead string
	switch ve.Reason {
	case ReasonEmpty:
		lead = "I didn't catch that."
	case ReasonBadEmail:
		lead = "That doesn't look like a valid email address."
	case ReasonBadPhone:
		lead = "That doesn't look like a valid phone number."
	case ReasonNotNumeric:
		lead = "That doesn't look like a number."
	case ReasonOutOfRange:
		lead = fmt.Sprintf("That number is out of range (%d-%d).", MinYears, MaxYears)
	default:
		lead = "Sorry, I couldn't accept that."
	}
	hint := strings.TrimSpace(f.Hint)
	if hint == "" {
		return lead + " " + Render(f, nil)
	}
	return lead + " " + hint
}

// Summary enumerates every collected field in descriptor order.
func (c *Collector) Summary(p Profile) string {
	var b strings.Builder
	if first := p.First("name"); first != "" {
		fmt.Fprintf(&b, "Thanks, %s! Here's what I've recorded:\n", first)
	} else {
		b.WriteString("Thanks! Here's what I've recorded:\n")
	}
	for _, f := range c.Fields {
		fmt.Fprintf(&b, "• %s: %s\n", f.Label, p.String(f.Key))
	}
	return strings.TrimRight(b.String(), "\n")
}
