package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hiring-bot/api/internal/intake"
	"hiring-bot/api/internal/interview"
)

const (
	msgWelcome = "Hello! I'm TalentScout, the hiring assistant. I'll collect a few details about you " +
		"and then ask some technical questions based on your tech stack.\n" +
		"You can type exit, quit or stop at any time to end the conversation."
	msgFarewell     = "👋 Thank you! The conversation has ended. You can start over whenever you like."
	msgNoQuestions  = "I couldn't prepare your technical questions right now. Please try again in a moment."
	msgOver         = "This conversation is over. Start over to begin a new one."
	msgFault        = "Something went wrong with this conversation and it can't continue. Please start over."
	msgNothingRetry = "There is nothing to retry right now."
)

var exitKeywords = map[string]bool{"exit": true, "quit": true, "stop": true}

var ErrResetNotAllowed = errors.New("session: reset is only allowed from completed or ended")

// IsExit reports whether input is one of the exit keywords, ignoring case
// and surrounding whitespace.
func IsExit(input string) bool {
	return exitKeywords[strings.ToLower(strings.TrimSpace(input))]
}

// Reply describes what one call appended to the log plus presentation hints.
type Reply struct {
	Turns []Turn
	Phase Phase
	// Notice is shown to the user but not recorded in the log.
	Notice       string
	CanRetry     bool
	NeedsRestart bool
}

// Messages returns the assistant texts to render, notice last.
func (r Reply) Messages() []string {
	var out []string
	for _, t := range r.Turns {
		if t.Role == RoleAssistant {
			out = append(out, t.Content)
		}
	}
	if r.Notice != "" {
		out = append(out, r.Notice)
	}
	return out
}

// Controller is the phase state machine. It holds no per-session state.
type Controller struct {
	Collector  *intake.Collector
	Questioner *interview.Questioner
	Bridger    *interview.Bridger
}

func NewController(fields []intake.FieldDescriptor, q *interview.Questioner, b *interview.Bridger) *Controller {
	return &Controller{Collector: intake.NewCollector(fields), Questioner: q, Bridger: b}
}

// Open greets the candidate and asks the first question of a fresh session.
// On a session already underway it repeats the last assistant message.
func (c *Controller) Open(s *Session) Reply {
	mark := s.Log.Len()
	if s.fault != nil {
		return c.reply(s, mark)
	}
	if mark == 0 && s.Phase == PhaseCollecting && s.FieldIndex == 0 {
		prompt, err := c.Collector.Prompt(0, s.Draft)
		if err != nil {
			r, _ := c.fail(s, mark, err.Error())
			return r
		}
		s.Log.Append(RoleAssistant, msgWelcome+"\n\n"+prompt)
		return c.reply(s, mark)
	}
	r := c.reply(s, mark)
	switch s.Phase {
	case PhaseCompleted, PhaseEnded:
		r.Notice = msgOver
	default:
		if t, ok := s.Log.LastAssistant(); ok {
			r.Notice = t.Content
		}
	}
	return r
}

// Handle processes one user input. Nothing is appended when ctx is cancelled
// while the turn waits on the generator; the context error is returned.
func (c *Controller) Handle(ctx context.Context, s *Session, input string) (Reply, error) {
	mark := s.Log.Len()
	if s.fault != nil {
		return c.reply(s, mark), s.fault
	}
	if s.Phase == PhaseCompleted || s.Phase == PhaseEnded {
		r := c.reply(s, mark)
		r.Notice = msgOver
		return r, nil
	}
	if IsExit(input) {
		s.Log.Append(RoleUser, input)
		s.Log.Append(RoleAssistant, msgFarewell)
		s.Phase = PhaseEnded
		return c.reply(s, mark), nil
	}

	switch s.Phase {
	case PhaseCollecting:
		return c.collect(ctx, s, input)
	case PhaseInterview:
		return c.answer(ctx, s, input)
	default:
		return c.fail(s, mark, fmt.Sprintf("unknown phase %q", s.Phase))
	}
}

// Retry regenerates the interview questions after a failed attempt.
func (c *Controller) Retry(ctx context.Context, s *Session) (Reply, error) {
	mark := s.Log.Len()
	if s.fault != nil {
		return c.reply(s, mark), s.fault
	}
	if s.Phase != PhaseInterview || len(s.Questions) > 0 {
		r := c.reply(s, mark)
		r.Notice = msgNothingRetry
		return r, nil
	}
	return c.prepareQuestions(ctx, s, "", false)
}

// Reset replaces the whole session state with a fresh one. It is legal from
// completed, ended, or a faulted session.
func (c *Controller) Reset(s *Session) error {
	if s.fault == nil && s.Phase != PhaseCompleted && s.Phase != PhaseEnded {
		return ErrResetNotAllowed
	}
	*s = *New(s.ID)
	return nil
}

func (c *Controller) collect(ctx context.Context, s *Session, input string) (Reply, error) {
	mark := s.Log.Len()
	if s.FieldIndex >= c.Collector.Len() {
		return c.fail(s, mark, "field index past the end of intake")
	}
	st, err := c.Collector.Step(s.FieldIndex, s.Draft, input)
	if err != nil {
		return c.fail(s, mark, err.Error())
	}

	if !st.Accepted {
		s.Log.Append(RoleUser, input)
		s.Log.Append(RoleAssistant, st.Reply)
		return c.reply(s, mark), nil
	}
	if !st.Done {
		if err := s.Draft.Set(st.Key, st.Value); err != nil {
			return c.fail(s, mark, err.Error())
		}
		s.FieldIndex++
		s.Log.Append(RoleUser, input)
		s.Log.Append(RoleAssistant, st.Reply)
		return c.reply(s, mark), nil
	}

	// Last field: the questions are requested before anything is committed so
	// a cancelled turn leaves the session untouched.
	draft := s.Draft.Clone()
	if err := draft.Set(st.Key, st.Value); err != nil {
		return c.fail(s, mark, err.Error())
	}
	if !draft.Complete(c.Collector.Fields) {
		return c.fail(s, mark, "intake finished with missing fields")
	}
	qs, genErr := c.Questioner.Generate(ctx, draft)
	if err := ctx.Err(); err != nil {
		return Reply{Phase: s.Phase}, err
	}

	s.Draft = draft
	s.FieldIndex++
	s.Profile = draft.Clone()
	s.Log.Append(RoleUser, input)
	if err := c.advance(s); err != nil {
		return c.fail(s, mark, err.Error())
	}

	summary := c.Collector.Summary(s.Profile)
	if genErr != nil {
		s.Log.Append(RoleAssistant, summary+"\n\n"+msgNoQuestions)
		r := c.reply(s, mark)
		r.CanRetry = true
		return r, nil
	}
	s.Questions = qs
	s.Log.Append(RoleAssistant, summary+"\n\n"+c.firstQuestion(qs))
	return c.reply(s, mark), nil
}

func (c *Controller) answer(ctx context.Context, s *Session, input string) (Reply, error) {
	mark := s.Log.Len()
	if !s.Profile.Complete(c.Collector.Fields) {
		return c.fail(s, mark, "interview reached with an incomplete candidate profile")
	}
	if len(s.Questions) == 0 {
		return c.prepareQuestions(ctx, s, input, true)
	}
	idx, total := s.QuestionIndex, len(s.Questions)
	if idx >= total {
		return c.fail(s, mark, "question index past the end of the interview")
	}

	br := c.Bridger.Bridge(ctx, s.Profile, s.Questions[idx], input, idx, total)
	if err := ctx.Err(); err != nil {
		return Reply{Phase: s.Phase}, err
	}

	s.Log.Append(RoleUser, input)
	s.QuestionIndex++
	text := br.Text
	if br.Closing {
		s.closingSent = true
	} else {
		text += "\n\n" + s.Questions[idx+1].Display(idx+2, total)
	}
	s.Log.Append(RoleAssistant, text)
	if err := c.advance(s); err != nil {
		return c.fail(s, mark, err.Error())
	}
	return c.reply(s, mark), nil
}

func (c *Controller) prepareQuestions(ctx context.Context, s *Session, input string, fromUser bool) (Reply, error) {
	mark := s.Log.Len()
	if !s.Profile.Complete(c.Collector.Fields) {
		return c.fail(s, mark, "interview reached with an incomplete candidate profile")
	}
	qs, genErr := c.Questioner.Generate(ctx, s.Profile)
	if err := ctx.Err(); err != nil {
		return Reply{Phase: s.Phase}, err
	}
	if fromUser {
		s.Log.Append(RoleUser, input)
	}
	if genErr != nil {
		s.Log.Append(RoleAssistant, msgNoQuestions)
		r := c.reply(s, mark)
		r.CanRetry = true
		return r, nil
	}
	s.Questions = qs
	s.Log.Append(RoleAssistant, c.firstQuestion(qs))
	return c.reply(s, mark), nil
}

// advance applies the forward transitions whose conditions now hold.
func (c *Controller) advance(s *Session) error {
	switch s.Phase {
	case PhaseCollecting:
		if s.FieldIndex < c.Collector.Len() {
			return nil
		}
		if !s.Profile.Complete(c.Collector.Fields) {
			return errors.New("cannot enter interview with an incomplete candidate profile")
		}
		s.Phase = PhaseInterview
	case PhaseInterview:
		if len(s.Questions) > 0 && s.QuestionIndex == len(s.Questions) && s.closingSent {
			s.Phase = PhaseCompleted
		}
	}
	return nil
}

func (c *Controller) firstQuestion(qs []interview.Question) string {
	return fmt.Sprintf("Let's begin the technical round: %d questions based on your tech stack.\n\n%s",
		len(qs), qs[0].Display(1, len(qs)))
}

func (c *Controller) fail(s *Session, mark int, reason string) (Reply, error) {
	s.fault = &StateError{Phase: s.Phase, Reason: reason}
	r := c.reply(s, mark)
	return r, s.fault
}

func (c *Controller) reply(s *Session, mark int) Reply {
	s.UpdatedAt = time.Now()
	r := Reply{Turns: s.Log.Since(mark), Phase: s.Phase}
	if s.fault != nil {
		r.Notice = msgFault
		r.NeedsRestart = true
	}
	if s.Phase == PhaseCompleted || s.Phase == PhaseEnded {
		r.NeedsRestart = true
	}
	return r
}
