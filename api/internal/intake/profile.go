package intake

import (
	"errors"
	"fmt"
	"strings"
)

// Profile maps a field key to its validated value (string or int).
type Profile map[string]any

var ErrAlreadySet = errors.New("profile: key already set")

// Set writes key once; a second write for the same key is rejected.
func (p Profile) Set(key string, v any) error {
	if _, ok := p[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySet, key)
	}
	p[key] = v
	return nil
}

func (p Profile) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value for key formatted as text, "" if missing.
func (p Profile) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// First returns the first whitespace-separated token of the value for key.
func (p Profile) First(key string) string {
	if f := strings.Fields(p.String(key)); len(f) > 0 {
		return f[0]
	}
	return ""
}

// Complete reports whether every descriptor key holds a value.
func (p Profile) Complete(fields []FieldDescriptor) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !p.Has(f.Key) {
			return false
		}
	}
	return true
}

func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
