package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memArchive struct {
	mu    sync.Mutex
	views []View
	err   error
}

func (a *memArchive) SaveTranscript(_ context.Context, v View) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.views = append(a.views, v)
	return a.err
}

func (a *memArchive) saved() []View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]View(nil), a.views...)
}

func TestServiceFirstMessageGreets(t *testing.T) {
	svc := NewService(newController(newGen()), nil, 0, 0)

	r, err := svc.Handle(context.Background(), "chat-1", "hi there")
	require.NoError(t, err)
	require.Len(t, r.Turns, 1)
	assert.Contains(t, r.Turns[0].Content, "TalentScout")

	v, ok := svc.View("chat-1")
	require.True(t, ok)
	assert.Equal(t, 0, v.FieldIndex)
	assert.Len(t, v.Turns, 1)
	assert.Equal(t, 1, svc.Len())

	_, ok = svc.View("missing")
	assert.False(t, ok)
}

func TestServiceArchivesOnCompletion(t *testing.T) {
	arch := &memArchive{}
	svc := NewService(newController(newGen()), arch, 0, 0)
	ctx := context.Background()

	svc.Open("chat-1")
	for _, in := range append(append([]string{}, intakeAnswers...), "a", "b", "c") {
		_, err := svc.Handle(ctx, "chat-1", in)
		require.NoError(t, err)
	}
	saved := arch.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, PhaseCompleted, saved[0].Phase)
	assert.Len(t, saved[0].Turns, 21)

	// archive failures are logged only
	arch.err = errors.New("db down")
	r, err := svc.Restart("chat-1")
	require.NoError(t, err)
	assert.Len(t, r.Turns, 1)
	_, err = svc.Handle(ctx, "chat-1", "stop")
	require.NoError(t, err)
	assert.Len(t, arch.saved(), 2)
}

func TestServiceRestartRefusedMidConversation(t *testing.T) {
	svc := NewService(newController(newGen()), nil, 0, 0)
	svc.Open("chat-1")
	_, err := svc.Restart("chat-1")
	assert.ErrorIs(t, err, ErrResetNotAllowed)

	// a brand new id restarts into a greeting
	r, err := svc.Restart("chat-2")
	require.NoError(t, err)
	assert.Len(t, r.Turns, 1)
}

func TestServiceExitPreemptsInFlightTurn(t *testing.T) {
	gen := newGen()
	svc := NewService(newController(gen), nil, 0, 0)
	ctx := context.Background()

	svc.Open("chat-1")
	for _, in := range intakeAnswers[:6] {
		_, err := svc.Handle(ctx, "chat-1", in)
		require.NoError(t, err)
	}

	started := make(chan struct{})
	gen.mu.Lock()
	gen.block = make(chan struct{})
	gen.started = started
	gen.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Handle(ctx, "chat-1", intakeAnswers[6])
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("question generation never started")
	}

	r, err := svc.Handle(ctx, "chat-1", "quit")
	require.NoError(t, err)
	assert.Equal(t, PhaseEnded, r.Phase)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight turn was not cancelled")
	}

	v, ok := svc.View("chat-1")
	require.True(t, ok)
	assert.Equal(t, PhaseEnded, v.Phase)
	assert.Equal(t, 6, v.FieldIndex)
	// greeting + 6 answered fields + exit pair
	assert.Len(t, v.Turns, 1+12+2)
}

func TestServiceEvictsOldest(t *testing.T) {
	svc := NewService(newController(newGen()), nil, 2, time.Hour)
	svc.Open("a")
	svc.Open("b")
	svc.Open("c")
	assert.Equal(t, 2, svc.Len())
	_, ok := svc.View("a")
	assert.False(t, ok)
}
