package session

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Log is the append-only conversation record.
type Log struct {
	turns []Turn
}

func (l *Log) Append(role Role, content string) {
	l.turns = append(l.turns, Turn{Role: role, Content: content})
}

func (l *Log) Len() int { return len(l.turns) }

// Turns returns a copy in insertion order.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Since returns a copy of the turns appended at or after index n.
func (l *Log) Since(n int) []Turn {
	if n < 0 {
		n = 0
	}
	if n >= len(l.turns) {
		return nil
	}
	out := make([]Turn, len(l.turns)-n)
	copy(out, l.turns[n:])
	return out
}

// LastAssistant returns the most recent assistant turn.
func (l *Log) LastAssistant() (Turn, bool) {
	for i := len(l.turns) - 1; i >= 0; i-- {
		if l.turns[i].Role == RoleAssistant {
			return l.turns[i], true
		}
	}
	return Turn{}, false
}
