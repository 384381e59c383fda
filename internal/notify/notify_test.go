package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	fail map[int64]error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	if err := b.fail[m.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	b.sent = append(b.sent, m)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestTriageCallback_RoundTrip(t *testing.T) {
	id := "3f1c2a7e-0000-4000-8000-000000000001"
	kb := TriageKeyboard(id)
	if len(kb.InlineKeyboard) != len(models.TriageStatuses) {
		t.Fatalf("ожидали %d кнопок, получили %d", len(models.TriageStatuses), len(kb.InlineKeyboard))
	}
	for i, row := range kb.InlineKeyboard {
		data := *row[0].CallbackData
		if len(data) > 64 {
			t.Fatalf("callback длиннее лимита Telegram: %q", data)
		}
		gotID, st, ok := ParseTriageCallback(data)
		if !ok || gotID != id || st != models.TriageStatuses[i] {
			t.Fatalf("разбор %q дал %q %q %v", data, gotID, st, ok)
		}
	}
	for _, bad := range []string{"", "triage:", "triage:x:pending", "other:x:resolved", "triage::resolved"} {
		if _, _, ok := ParseTriageCallback(bad); ok {
			t.Fatalf("%q не должен разбираться", bad)
		}
	}
}

func TestAlert_SendsToEveryChat(t *testing.T) {
	bot := &fakeBot{}
	a := NewTelegramAlerter(bot, []int64{1, 2}, time.UTC)
	r := models.Report{ID: "r1", ClassName: "XII IPA 1", Status: models.StatusPending,
		CreatedAt: time.Date(2024, 5, 14, 7, 5, 0, 0, time.UTC)}
	if err := a.Alert(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("ожидали 2 сообщения, получили %d", len(bot.sent))
	}
	if !strings.Contains(bot.sent[0].Text, "XII IPA 1") || !strings.Contains(bot.sent[0].Text, "07:05") {
		t.Fatalf("неожиданный текст %q", bot.sent[0].Text)
	}
	if _, ok := bot.sent[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Fatal("нет кнопок обработки")
	}
}

func TestAlert_PartialFailureReported(t *testing.T) {
	bot := &fakeBot{fail: map[int64]error{2: errors.New("chat not found")}}
	a := NewTelegramAlerter(bot, []int64{1, 2, 3}, time.UTC)
	err := a.Alert(context.Background(), models.Report{ID: "r1", Status: models.StatusPending})
	if err == nil || !strings.Contains(err.Error(), "chat 2") {
		t.Fatalf("ожидали ошибку по чату 2, получили %v", err)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("остальные чаты должны получить сигнал, отправлено %d", len(bot.sent))
	}
}

func TestIsSystemErr(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&tgbotapi.Error{Code: 429, Message: "Too Many Requests"}, true},
		{&tgbotapi.Error{Code: 502, Message: "Bad Gateway"}, true},
		{&tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, false},
		{errors.New("net/http: request canceled (Client.Timeout exceeded) timeout"), true},
	}
	for _, tc := range cases {
		if got := isSystemErr(tc.err); got != tc.want {
			t.Fatalf("%v: ожидали %v", tc.err, tc.want)
		}
	}
}
