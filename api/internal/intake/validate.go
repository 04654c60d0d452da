package intake

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Kind string

const (
	KindNone   Kind = "none"
	KindEmail  Kind = "email"
	KindPhone  Kind = "phone"
	KindNumber Kind = "number"
)

const (
	MinYears = 0
	MaxYears = 70
)

// Reasons carried by ValidationError.
const (
	ReasonEmpty      = "empty"
	ReasonBadEmail   = "invalid email"
	ReasonBadPhone   = "invalid phone"
	ReasonNotNumeric = "not numeric"
	ReasonOutOfRange = "out of range"
)

var (
	reEmail = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[1-9][0-9]{1,14}$`)
)

// ValidationError is a recoverable, field-level rejection of raw input.
type ValidationError struct {
	Kind   Kind
	Reason string
	Input  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %s", e.Kind, e.Reason)
}

func (k Kind) Valid() bool {
	switch k {
	case KindNone, KindEmail, KindPhone, KindNumber:
		return true
	}
	return false
}

// Validate normalizes raw against kind. The returned value is a string for
// every kind except KindNumber, which yields an int.
func Validate(kind Kind, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	fail := func(reason string) (any, error) {
		return nil, &ValidationError{Kind: kind, Reason: reason, Input: raw}
	}
	if s == "" {
		return fail(ReasonEmpty)
	}

	switch kind {
	case KindNone, "":
		return s, nil
	case KindEmail:
		s = strings.ToLower(s)
		if !reEmail.MatchString(s) {
			return fail(ReasonBadEmail)
		}
		return s, nil
	case KindPhone:
		if !rePhone.MatchString(s) {
			return fail(ReasonBadPhone)
		}
		return s, nil
	case KindNumber:
		n, err := strconv.Atoi(s)
		if errors.Is(err, strconv.ErrRange) {
			return fail(ReasonOutOfRange)
		}
		if err != nil {
			return fail(ReasonNotNumeric)
		}
		if n < MinYears || n > MaxYears {
			return fail(ReasonOutOfRange)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("validate: unknown kind %q", kind)
	}
}
