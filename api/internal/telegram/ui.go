package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hiring-bot/api/internal/session"
)

const (
	cbRetryQuestions = "retry_questions"
	cbRestart        = "restart"
)

func makeRetryKeyboard() tgbotapi.InlineKeyboardMarkup {
	retry := tgbotapi.NewInlineKeyboardButtonData("Retry questions", cbRetryQuestions)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(retry))
}

func makeRestartKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Start over", cbRestart)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

func keyboardFor(r session.Reply) (tgbotapi.InlineKeyboardMarkup, bool) {
	switch {
	case r.NeedsRestart:
		return makeRestartKeyboard(), true
	case r.CanRetry:
		return makeRetryKeyboard(), true
	}
	return tgbotapi.InlineKeyboardMarkup{}, false
}
