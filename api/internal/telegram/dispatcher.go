package telegram

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hiring-bot/api/internal/session"
)

// Dispatcher runs updates of one chat strictly in arrival order while
// different chats proceed in parallel. Each chat with pending updates has a
// single worker goroutine that exits once its queue is empty.
type Dispatcher struct {
	Handle func(tgbotapi.Update)
	// Preempt is called for an exit keyword before it is queued.
	Preempt func(chatID int64)

	mu     sync.Mutex
	queues map[int64]*chatQueue
	wg     sync.WaitGroup
}

type chatQueue struct {
	items []tgbotapi.Update
}

func NewDispatcher(r *Router) *Dispatcher {
	return &Dispatcher{
		Handle: r.HandleUpdate,
		Preempt: func(chatID int64) {
			r.Sessions.Preempt(SessionID(chatID))
		},
	}
}

// Dispatch never blocks on update handling.
func (d *Dispatcher) Dispatch(upd tgbotapi.Update) {
	cid, ok := chatOf(upd)
	if !ok {
		return
	}
	if upd.Message != nil && !upd.Message.IsCommand() && session.IsExit(upd.Message.Text) && d.Preempt != nil {
		d.Preempt(cid)
	}

	d.wg.Add(1)
	d.mu.Lock()
	if d.queues == nil {
		d.queues = make(map[int64]*chatQueue)
	}
	q, running := d.queues[cid]
	if !running {
		q = &chatQueue{}
		d.queues[cid] = q
	}
	q.items = append(q.items, upd)
	d.mu.Unlock()

	if !running {
		go d.drain(cid, q)
	}
}

func (d *Dispatcher) drain(cid int64, q *chatQueue) {
	for {
		d.mu.Lock()
		if len(q.items) == 0 {
			delete(d.queues, cid)
			d.mu.Unlock()
			return
		}
		upd := q.items[0]
		q.items = q.items[1:]
		d.mu.Unlock()

		d.Handle(upd)
		d.wg.Done()
	}
}

// Wait blocks until every dispatched update has been handled.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func chatOf(upd tgbotapi.Update) (int64, bool) {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		return upd.Message.Chat.ID, true
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
		return upd.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}
