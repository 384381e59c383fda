package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

const triagePrefix = "triage:"

// TelegramAlerter шлёт каждую новую заявку во все чаты дежурных с кнопками обработки.
type TelegramAlerter struct {
	bot   Sender
	chats []int64
	loc   *time.Location
}

func NewTelegramAlerter(bot Sender, chats []int64, loc *time.Location) *TelegramAlerter {
	return &TelegramAlerter{bot: bot, chats: chats, loc: loc}
}

func (a *TelegramAlerter) Alert(ctx context.Context, r models.Report) error {
	var errs []error
	for _, chatID := range a.chats {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, AlertText(r, a.loc))
		msg.ReplyMarkup = TriageKeyboard(r.ID)
		if _, err := Send(a.bot, msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func AlertText(r models.Report, loc *time.Location) string {
	class := r.ClassName
	if class == "" {
		class = "?"
	}
	return fmt.Sprintf("🔔 Laporan baru: kelas %s kosong\nWaktu: %s\nStatus: %s",
		class, r.CreatedAt.In(loc).Format("15:04"), r.Status.Label())
}

// TriageKeyboard — по кнопке на каждый целевой статус; callback "triage:<id>:<status>".
func TriageKeyboard(reportID string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(models.TriageStatuses))
	for _, st := range models.TriageStatuses {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(st.Label(), triagePrefix+reportID+":"+string(st)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ParseTriageCallback — обратная операция к TriageKeyboard.
func ParseTriageCallback(data string) (reportID string, st models.Status, ok bool) {
	rest, found := strings.CutPrefix(data, triagePrefix)
	if !found {
		return "", "", false
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 {
		return "", "", false
	}
	st, err := models.ParseTriageStatus(rest[i+1:])
	if err != nil {
		return "", "", false
	}
	return rest[:i], st, true
}
