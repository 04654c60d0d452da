package session

import (
	"fmt"
	"time"

	"hiring-bot/api/internal/intake"
	"hiring-bot/api/internal/interview"
)

type Phase string

const (
	PhaseCollecting Phase = "collecting_info"
	PhaseInterview  Phase = "interview"
	PhaseCompleted  Phase = "completed"
	PhaseEnded      Phase = "ended"
)

// StateError is a fatal invariant violation. The session refuses further
// input until it is reset.
type StateError struct {
	Phase  Phase
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("session state (%s): %s", e.Phase, e.Reason)
}

// Session is the live state of one conversation. It is owned by a single
// Controller call at a time.
type Session struct {
	ID            string
	Phase         Phase
	FieldIndex    int
	QuestionIndex int
	Draft         intake.Profile
	Profile       intake.Profile
	Questions     []interview.Question
	Log           Log
	StartedAt     time.Time
	UpdatedAt     time.Time

	closingSent bool
	fault       *StateError
}

func New(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Phase:     PhaseCollecting,
		Draft:     intake.Profile{},
		Profile:   intake.Profile{},
		StartedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Fault() *StateError { return s.fault }

// View is an immutable snapshot of a session.
type View struct {
	ID            string               `json:"id"`
	Phase         Phase                `json:"phase"`
	FieldIndex    int                  `json:"field_index"`
	QuestionIndex int                  `json:"question_index"`
	Profile       intake.Profile       `json:"candidate_profile"`
	Questions     []interview.Question `json:"questions"`
	Turns         []Turn               `json:"turns"`
	Fault         string               `json:"fault,omitempty"`
	StartedAt     time.Time            `json:"started_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func (s *Session) View() View {
	v := View{
		ID:            s.ID,
		Phase:         s.Phase,
		FieldIndex:    s.FieldIndex,
		QuestionIndex: s.QuestionIndex,
		Profile:       s.Profile.Clone(),
		Questions:     append([]interview.Question(nil), s.Questions...),
		Turns:         s.Log.Turns(),
		StartedAt:     s.StartedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.fault != nil {
		v.Fault = s.fault.Error()
	}
	return v
}
