// Package notify — отправка в Telegram: сигнал о новой заявке дежурным и общие
// обёртки Send/Request с отчётом о системных сбоях в Sentry.
package notify

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/lapor-jamkos/internal/observability"
)

// Sender — часть *tgbotapi.BotAPI, нужная для отправки.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Системные: 5xx, 429, таймауты. Ошибки валидации Telegram в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return strings.Contains(err.Error(), "timeout")
}

func Send(bot Sender, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

func Request(bot Sender, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r, err := bot.Request(req)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return r, err
}
