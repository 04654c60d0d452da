package telegram

import (
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hiring-bot/api/internal/session"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	switch cb.Data {
	case cbRetryQuestions:
		r.clearKeyboard(cid, cb.Message.MessageID)
		r.onRetry(cid)
	case cbRestart:
		r.clearKeyboard(cid, cb.Message.MessageID)
		r.onRestart(cid)
	}
}

func (r *Router) onRetry(chatID int64) {
	ctx, cancel := r.turnContext()
	defer cancel()
	r.typing(chatID)
	reply, err := r.Sessions.Retry(ctx, SessionID(chatID))
	r.deliver(chatID, reply, err)
}

func (r *Router) onRestart(chatID int64) {
	reply, err := r.Sessions.Restart(SessionID(chatID))
	if errors.Is(err, session.ErrResetNotAllowed) {
		r.send(chatID, "This conversation is still in progress.")
		return
	}
	r.deliver(chatID, reply, err)
}

func (r *Router) clearKeyboard(chatID int64, msgID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{})
	_, _ = r.Bot.Send(edit)
}
