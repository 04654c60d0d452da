package intake

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validInputs = []string{
	"Jane Doe",
	"Jane@Example.com",
	"Backend Engineer",
	"Go, PostgreSQL, Kubernetes",
	"+14155552671",
	"5",
	"Berlin",
}

func TestDefaultFields(t *testing.T) {
	fields := DefaultFields()
	require.Len(t, fields, 7)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"name", "email", "position", "tech_stack", "phone", "years_of_experience", "location"}, keys)
	assert.Equal(t, KindEmail, fields[1].Kind)
	assert.Equal(t, KindPhone, fields[4].Kind)
	assert.Equal(t, KindNumber, fields[5].Kind)
}

func TestCollectorAdvancesOnePerAcceptedInput(t *testing.T) {
	c := NewCollector(DefaultFields())
	draft := Profile{}
	for i, in := range validInputs {
		st, err := c.Step(i, draft, in)
		require.NoError(t, err)
		require.True(t, st.Accepted, in)
		require.NoError(t, draft.Set(st.Key, st.Value))
		assert.Equal(t, i == len(validInputs)-1, st.Done)
	}
	assert.True(t, draft.Complete(c.Fields))
	assert.Equal(t, "jane@example.com", draft["email"])
	assert.Equal(t, 5, draft["years_of_experience"])
}

func TestCollectorRendersFirstName(t *testing.T) {
	c := NewCollector(DefaultFields())
	st, err := c.Step(0, Profile{}, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you, Jane! What's your email address?", st.Reply)
}

func TestCollectorRejectsWithClarification(t *testing.T) {
	c := NewCollector(DefaultFields())
	draft := Profile{"name": "Jane"}
	st, err := c.Step(1, draft, "not-an-email")
	require.NoError(t, err)
	assert.False(t, st.Accepted)
	require.NotNil(t, st.Err)
	assert.Contains(t, st.Reply, "valid email")
	assert.False(t, draft.Has("email"))

	st, err = c.Step(5, draft, "99")
	require.NoError(t, err)
	assert.Contains(t, st.Reply, "out of range")
	st, err = c.Step(5, draft, "five")
	require.NoError(t, err)
	assert.Contains(t, st.Reply, "number")
}

func TestCollectorRefusesSecondWrite(t *testing.T) {
	c := NewCollector(DefaultFields())
	_, err := c.Step(0, Profile{"name": "Jane"}, "John")
	assert.True(t, errors.Is(err, ErrAlreadySet))

	_, err = c.Step(7, Profile{}, "x")
	assert.Error(t, err)
}

func TestSummaryListsAllFields(t *testing.T) {
	c := NewCollector(DefaultFields())
	p := Profile{}
	for i, in := range validInputs {
		st, err := c.Step(i, p, in)
		require.NoError(t, err)
		p[st.Key] = st.Value
	}
	s := c.Summary(p)
	assert.Contains(t, s, "Thanks, Jane!")
	for _, f := range c.Fields {
		assert.Contains(t, s, f.Label+": "+p.String(f.Key))
	}
}

func TestParseFieldsRejectsForwardPlaceholder(t *testing.T) {
	_, err := ParseFields([]byte(`
fields:
  - key: email
    prompt: "Hi {name}, your email?"
    kind: email
  - key: name
    prompt: "Name?"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{name}")
}

func TestParseFieldsValidation(t *testing.T) {
	_, err := ParseFields([]byte("   "))
	assert.Error(t, err)
	_, err = ParseFields([]byte("fields:\n  - key: a\n    prompt: A\n    kind: zip\n"))
	assert.Error(t, err)
	_, err = ParseFields([]byte("fields:\n  - key: a\n    prompt: A\n  - key: a\n    prompt: B\n"))
	assert.Error(t, err)

	fields, err := ParseFields([]byte("fields:\n  - key: city\n    prompt: City?\n"))
	require.NoError(t, err)
	assert.Equal(t, KindNone, fields[0].Kind)
	assert.Equal(t, "city", fields[0].Label)
}

func TestLoadFieldsFromFile(t *testing.T) {
	fields, err := LoadFields("")
	require.NoError(t, err)
	assert.Len(t, fields, 7)

	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  - key: name\n    prompt: Name?\n  - key: age\n    prompt: \"{name}, age?\"\n    kind: number\n"), 0o600))
	fields, err = LoadFields(path)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Ada, age?", Render(fields[1], Profile{"name": "Ada Lovelace"}))

	_, err = LoadFields(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
