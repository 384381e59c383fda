package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/metrics"
	"github.com/Spok95/lapor-jamkos/internal/notify"
)

const cancelText = "Batal"

// IsCancelText распознаёт текстовую отмену на шагах ввода: "Batal", "/cancel", "cancel".
func IsCancelText(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "batal" || s == "/cancel" || s == "cancel"
}

// answerKeyboard: reply-клавиатура с подсказками и кнопкой отмены.
func answerKeyboard(suggestions ...string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, s := range suggestions {
		if s = strings.TrimSpace(s); s != "" {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(s)))
		}
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(cancelText)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func (b *Bot) send(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := notify.Send(b.api, msg); err != nil {
		metrics.HandlerErrors.Inc()
		b.log.Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := notify.Request(b.api, tgbotapi.NewCallback(id, text)); err != nil {
		metrics.HandlerErrors.Inc()
	}
}
