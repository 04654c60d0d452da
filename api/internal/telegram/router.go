package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hiring-bot/api/internal/session"
	"hiring-bot/api/internal/util"
)

const maxMessageRunes = 3900

// Sender is the part of *tgbotapi.BotAPI the router uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Router struct {
	Bot      Sender
	Sessions *session.Service
	// TurnTimeout bounds one user turn including generation retries.
	TurnTimeout time.Duration
}

// SessionID maps a chat to its session key.
func SessionID(chatID int64) string { return "tg:" + strconv.FormatInt(chatID, 10) }

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd)
		return
	}
	cid := upd.Message.Chat.ID
	if upd.Message.Text == "" {
		r.send(cid, "I can only read text messages. Please type your answer.")
		return
	}

	ctx, cancel := r.turnContext()
	defer cancel()
	r.typing(cid)
	reply, err := r.Sessions.Handle(ctx, SessionID(cid), upd.Message.Text)
	r.deliver(cid, reply, err)
}

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	id := SessionID(cid)
	switch upd.Message.Command() {
	case "start":
		r.deliver(cid, r.Sessions.Open(id), nil)
	case "restart":
		reply, err := r.Sessions.Restart(id)
		if errors.Is(err, session.ErrResetNotAllowed) {
			r.send(cid, "We're still in the middle of our conversation. Type exit to end it first.")
			return
		}
		r.deliver(cid, reply, err)
	case "retry":
		ctx, cancel := r.turnContext()
		defer cancel()
		r.typing(cid)
		reply, err := r.Sessions.Retry(ctx, id)
		r.deliver(cid, reply, err)
	case "health":
		r.send(cid, "✅ OK")
	default:
		r.send(cid, "Unknown command. Available: /start, /restart, /retry")
	}
}

func (r *Router) turnContext() (context.Context, context.CancelFunc) {
	if r.TurnTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), r.TurnTimeout)
}

// deliver sends every assistant message of the reply; the last one carries
// the keyboard the reply asks for.
func (r *Router) deliver(chatID int64, reply session.Reply, err error) {
	var se *session.StateError
	switch {
	case err == nil, errors.As(err, &se):
		if se != nil {
			log.Printf("telegram: chat %d: %v", chatID, se)
		}
	case errors.Is(err, context.Canceled):
		// superseded by an exit in the same chat
		return
	case errors.Is(err, context.DeadlineExceeded):
		r.send(chatID, "That took too long. Please send your message again.")
		return
	default:
		log.Printf("telegram: chat %d: %v", chatID, err)
		r.send(chatID, fmt.Sprintf("Something went wrong: %v", err))
		return
	}

	msgs := reply.Messages()
	for i, text := range msgs {
		msg := tgbotapi.NewMessage(chatID, util.Truncate(text, maxMessageRunes))
		if i == len(msgs)-1 {
			if kb, ok := keyboardFor(reply); ok {
				msg.ReplyMarkup = kb
			}
		}
		if _, err := r.Bot.Send(msg); err != nil {
			log.Printf("telegram: send to %d: %v", chatID, err)
		}
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) typing(chatID int64) {
	_, _ = r.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}
