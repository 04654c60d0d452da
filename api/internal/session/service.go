package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheSize = 10000
	DefaultTTL       = 2 * time.Hour

	archiveTimeout = 5 * time.Second
)

// Archive receives a transcript once a session reaches completed or ended.
type Archive interface {
	SaveTranscript(ctx context.Context, v View) error
}

type entry struct {
	mu sync.Mutex // one turn at a time
	s  *Session

	flightMu sync.Mutex
	cancel   context.CancelFunc
}

func (e *entry) setFlight(cancel context.CancelFunc) {
	e.flightMu.Lock()
	e.cancel = cancel
	e.flightMu.Unlock()
}

// preempt cancels the turn currently holding the session, if any.
func (e *entry) preempt() {
	e.flightMu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.flightMu.Unlock()
}

// Service owns the live sessions and serializes turns per session.
type Service struct {
	Ctrl    *Controller
	Archive Archive

	mu    sync.Mutex
	cache *expirable.LRU[string, *entry]
}

func NewService(ctrl *Controller, archive Archive, size int, ttl time.Duration) *Service {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	onEvict := func(id string, e *entry) {
		log.Printf("session: evicted %s", id)
	}
	return &Service{
		Ctrl:    ctrl,
		Archive: archive,
		cache:   expirable.NewLRU[string, *entry](size, onEvict, ttl),
	}
}

func (svc *Service) get(id string, create bool) (*entry, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if e, ok := svc.cache.Get(id); ok {
		return e, true
	}
	if !create {
		return nil, false
	}
	e := &entry{s: New(id)}
	svc.cache.Add(id, e)
	return e, true
}

// touch refreshes the entry's TTL.
func (svc *Service) touch(id string, e *entry) {
	svc.mu.Lock()
	svc.cache.Add(id, e)
	svc.mu.Unlock()
}

// Open returns the greeting for id, creating the session when needed.
func (svc *Service) Open(id string) Reply {
	e, _ := svc.get(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	r := svc.Ctrl.Open(e.s)
	svc.touch(id, e)
	return r
}

// Handle runs one user turn. An exit keyword cancels whatever turn is in
// flight for the same session before waiting for its slot.
func (svc *Service) Handle(ctx context.Context, id, input string) (Reply, error) {
	e, _ := svc.get(id, true)
	if IsExit(input) {
		e.preempt()
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Log.Len() == 0 && e.s.Fault() == nil {
		r := svc.Ctrl.Open(e.s)
		svc.touch(id, e)
		return r, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	e.setFlight(cancel)
	defer func() {
		e.setFlight(nil)
		cancel()
	}()

	before := e.s.Phase
	r, err := svc.Ctrl.Handle(ctx, e.s, input)
	svc.touch(id, e)
	svc.archiveOnFinish(e.s, before)
	return r, err
}

// Preempt cancels the turn in flight for id, if any. Transports that queue
// input per conversation call it when an exit keyword arrives so the pending
// turn does not hold the exit back.
func (svc *Service) Preempt(id string) {
	if e, ok := svc.get(id, false); ok {
		e.preempt()
	}
}

// Retry re-requests interview questions for id.
func (svc *Service) Retry(ctx context.Context, id string) (Reply, error) {
	e, _ := svc.get(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	e.setFlight(cancel)
	defer func() {
		e.setFlight(nil)
		cancel()
	}()

	r, err := svc.Ctrl.Retry(ctx, e.s)
	svc.touch(id, e)
	return r, err
}

// Restart resets a finished or faulted session and greets again.
func (svc *Service) Restart(id string) (Reply, error) {
	e, _ := svc.get(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Log.Len() > 0 {
		if err := svc.Ctrl.Reset(e.s); err != nil {
			return Reply{Phase: e.s.Phase}, err
		}
	}
	r := svc.Ctrl.Open(e.s)
	svc.touch(id, e)
	return r, nil
}

func (svc *Service) View(id string) (View, bool) {
	e, ok := svc.get(id, false)
	if !ok {
		return View{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.View(), true
}

func (svc *Service) Len() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.cache.Len()
}

func (svc *Service) archiveOnFinish(s *Session, before Phase) {
	if svc.Archive == nil || s.Phase == before {
		return
	}
	if s.Phase != PhaseCompleted && s.Phase != PhaseEnded {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := svc.Archive.SaveTranscript(ctx, s.View()); err != nil {
		log.Printf("session: archive %s failed: %v", s.ID, err)
	}
}
