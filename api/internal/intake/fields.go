package intake

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldDescriptor is one intake question. Order in the list is significant.
type FieldDescriptor struct {
	Key    string `yaml:"key" json:"key"`
	Label  string `yaml:"label" json:"label"`
	Prompt string `yaml:"prompt" json:"prompt_template"`
	Kind   Kind   `yaml:"kind" json:"validation_kind"`
	Hint   string `yaml:"hint" json:"hint,omitempty"`
}

type fieldsFile struct {
	Fields []FieldDescriptor `yaml:"fields"`
}

//go:embed fields.yaml
var defaultFieldsYAML []byte

var rePlaceholder = regexp.MustCompile(`\{([a-z0-9_]+)\}`)

// DefaultFields returns the built-in seven-step intake sequence.
func DefaultFields() []FieldDescriptor {
	fields, err := ParseFields(defaultFieldsYAML)
	if err != nil {
		panic("intake: embedded fields.yaml: " + err.Error())
	}
	return fields
}

// LoadFields reads descriptors from a YAML file; an empty path yields the defaults.
func LoadFields(path string) ([]FieldDescriptor, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultFields(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intake: read %s: %w", path, err)
	}
	fields, err := ParseFields(data)
	if err != nil {
		return nil, fmt.Errorf("intake: %s: %w", path, err)
	}
	return fields, nil
}

// ParseFields decodes and validates a descriptor list.
func ParseFields(data []byte) ([]FieldDescriptor, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("fields payload is empty")
	}
	var ff fieldsFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if len(ff.Fields) == 0 {
		return nil, fmt.Errorf("no fields defined")
	}

	seen := make(map[string]bool, len(ff.Fields))
	for i, f := range ff.Fields {
		f.Key = strings.TrimSpace(f.Key)
		if f.Key == "" {
			return nil, fmt.Errorf("field %d: key is empty", i)
		}
		if seen[f.Key] {
			return nil, fmt.Errorf("field %q: duplicate key", f.Key)
		}
		if f.Kind == "" {
			f.Kind = KindNone
		}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("field %q: unknown kind %q", f.Key, f.Kind)
		}
		if strings.TrimSpace(f.Prompt) == "" {
			return nil, fmt.Errorf("field %q: prompt is empty", f.Key)
		}
		// placeholders may only point backwards
		for _, m := range rePlaceholder.FindAllStringSubmatch(f.Prompt, -1) {
			if !seen[m[1]] {
				return nil, fmt.Errorf("field %q: placeholder {%s} does not reference an earlier field", f.Key, m[1])
			}
		}
		if f.Label == "" {
			f.Label = f.Key
		}
		seen[f.Key] = true
		ff.Fields[i] = f
	}
	return ff.Fields, nil
}

// Render substitutes {key} placeholders with the first token of the collected value.
func Render(f FieldDescriptor, p Profile) string {
	return rePlaceholder.ReplaceAllStringFunc(f.Prompt, func(m string) string {
		key := m[1 : len(m)-1]
		if v := p.First(key); v != "" {
			return v
		}
		return "there"
	})
}
