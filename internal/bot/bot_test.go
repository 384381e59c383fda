package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/aggregate"
	"github.com/Spok95/lapor-jamkos/internal/lifecycle"
	"github.com/Spok95/lapor-jamkos/internal/live"
	"github.com/Spok95/lapor-jamkos/internal/models"
	"github.com/Spok95/lapor-jamkos/internal/prefs"
	"github.com/Spok95/lapor-jamkos/internal/registry"
	"github.com/Spok95/lapor-jamkos/internal/testutil/memstore"
)

const staffChat = 100

type fakeAPI struct {
	mu        sync.Mutex
	messages  []tgbotapi.MessageConfig
	callbacks []tgbotapi.CallbackConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.callbacks = append(f.callbacks, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return tgbotapi.MessageConfig{}
	}
	return f.messages[len(f.messages)-1]
}

type fixture struct {
	bot    *Bot
	api    *fakeAPI
	st     *memstore.Store
	engine *lifecycle.Engine
	class  models.Classroom
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	reg := registry.New(st, zap.NewNop())
	engine := lifecycle.New(st, reg, prefs.NewMemory(), zap.NewNop())
	hub := live.NewHub(st, nil, time.UTC, 4, zap.NewNop())
	api := &fakeAPI{}
	c, err := reg.Create(context.Background(), "XII IPA 1")
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		bot:    New(api, engine, hub, st, []int64{staffChat}, time.UTC, zap.NewNop()),
		api:    api,
		st:     st,
		engine: engine,
		class:  c,
	}
}

func (f *fixture) submit(t *testing.T) models.Report {
	t.Helper()
	r, err := f.engine.Submit(context.Background(), f.class.Token)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func (f *fixture) press(chatID int64, data string) {
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}})
}

func (f *fixture) say(chatID int64, text string) {
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
	}})
}

func keyboardLabels(m tgbotapi.MessageConfig) []string {
	kb, ok := m.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		return nil
	}
	var out []string
	for _, row := range kb.Keyboard {
		for _, b := range row {
			out = append(out, b.Text)
		}
	}
	return out
}

func TestTriageFlow(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t)

	f.press(staffChat, "triage:"+r.ID+":contacting_teacher")
	if !strings.Contains(f.api.last().Text, "guru yang berhalangan") {
		t.Fatalf("ожидали вопрос об учителе, получили %q", f.api.last().Text)
	}
	f.say(staffChat, "Ibu Sari")
	if !strings.Contains(f.api.last().Text, "petugas piket") {
		t.Fatalf("ожидали вопрос о дежурном, получили %q", f.api.last().Text)
	}
	f.say(staffChat, "Budi")
	if !strings.HasPrefix(f.api.last().Text, "✅") {
		t.Fatalf("ожидали подтверждение, получили %q", f.api.last().Text)
	}

	got, err := f.engine.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusContactingTeacher || *got.PicketName != "Budi" || *got.MissingTeacherName != "Ibu Sari" {
		t.Fatalf("заявка обработана неверно: %#v", got)
	}

	// повторная обработка: имя дежурного предлагается из настроек чата
	f.press(staffChat, "triage:"+r.ID+":resolved")
	f.say(staffChat, "Ibu Sari")
	labels := keyboardLabels(f.api.last())
	if len(labels) != 2 || labels[0] != "Budi" || labels[1] != cancelText {
		t.Fatalf("ожидали подсказку Budi, получили %v", labels)
	}
	f.say(staffChat, "Budi")
	got, _ = f.engine.Get(context.Background(), r.ID)
	if got.Status != models.StatusResolved {
		t.Fatalf("повторная обработка не применилась: %s", got.Status)
	}
}

func TestTriage_Cancel(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t)

	f.press(staffChat, "triage:"+r.ID+":resolved")
	f.say(staffChat, "batal")
	if f.api.last().Text != "Dibatalkan." {
		t.Fatalf("ожидали отмену, получили %q", f.api.last().Text)
	}
	got, _ := f.engine.Get(context.Background(), r.ID)
	if got.Status != models.StatusPending {
		t.Fatal("отмена не должна менять заявку")
	}
	// после отмены обычный текст даёт справку
	f.say(staffChat, "Budi")
	if f.api.last().Text != helpText {
		t.Fatalf("ожидали справку, получили %q", f.api.last().Text)
	}
}

func TestTriage_StoreFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t)

	f.press(staffChat, "triage:"+r.ID+":giving_task")
	f.say(staffChat, "Ibu Sari")
	f.st.SetFail(errors.New("db down"))
	f.say(staffChat, "Budi")
	if !strings.Contains(f.api.last().Text, "Terjadi kesalahan") {
		t.Fatalf("ожидали сообщение об ошибке, получили %q", f.api.last().Text)
	}
	f.st.SetFail(nil)
	f.say(staffChat, "Budi")
	if !strings.HasPrefix(f.api.last().Text, "✅") {
		t.Fatalf("повтор после сбоя должен пройти, получили %q", f.api.last().Text)
	}
}

func TestTriage_UnknownReport(t *testing.T) {
	f := newFixture(t)
	f.press(staffChat, "triage:00000000-0000-0000-0000-000000000000:resolved")
	if len(f.api.callbacks) != 1 || f.api.callbacks[0].Text != "Laporan tidak ditemukan" {
		t.Fatalf("ожидали ответ 'не найдено', получили %#v", f.api.callbacks)
	}
	f.say(staffChat, "Ibu Sari")
	if f.api.last().Text != helpText {
		t.Fatal("состояние обработки не должно было начаться")
	}
}

func TestNonStaffRejected(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t)

	f.say(5, "/today")
	if !strings.Contains(f.api.last().Text, "Akses ditolak") {
		t.Fatalf("ожидали отказ, получили %q", f.api.last().Text)
	}
	f.press(5, "triage:"+r.ID+":resolved")
	if f.api.callbacks[len(f.api.callbacks)-1].Text != "Akses ditolak" {
		t.Fatal("кнопка из чужого чата должна отвергаться")
	}
}

func TestTodayAndPending(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t)
	f.submit(t)
	if _, err := f.engine.Process(context.Background(), a.ID, lifecycle.ProcessInput{
		PicketName: "Budi", MissingTeacherName: "Ibu Sari", Status: "resolved",
	}); err != nil {
		t.Fatal(err)
	}

	f.say(staffChat, "/today@lapor_bot")
	text := f.api.last().Text
	if !strings.Contains(text, "Laporan hari ini: 2") || !strings.Contains(text, "Belum ditangani: 1") || !strings.Contains(text, "Selesai: 1") {
		t.Fatalf("неверная сводка %q", text)
	}

	before := len(f.api.messages)
	f.say(staffChat, "/pending")
	if len(f.api.messages)-before != 1 {
		t.Fatalf("ожидали одну ожидающую заявку, отправлено %d", len(f.api.messages)-before)
	}
	if _, ok := f.api.last().ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Fatal("у ожидающей заявки должны быть кнопки")
	}
}

func TestTodayText(t *testing.T) {
	s := aggregate.Snapshot{At: time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC), TotalClasses: 3}
	s.Today.Total, s.Today.Unhandled = 2, 2
	got := TodayText(s, time.UTC)
	if !strings.Contains(got, "14.05.2024 08:00") || !strings.Contains(got, "Total kelas: 3") {
		t.Fatalf("получили %q", got)
	}
}

func TestIsCancelText(t *testing.T) {
	for _, s := range []string{"Batal", " batal ", "/cancel", "CANCEL"} {
		if !IsCancelText(s) {
			t.Fatalf("%q должен считаться отменой", s)
		}
	}
	if IsCancelText("Budi") {
		t.Fatal("обычный текст не отмена")
	}
}

func TestCommand(t *testing.T) {
	cases := map[string]string{"": "", "/Today": "/today", "/pending@lapor_bot x": "/pending", "halo": "halo"}
	for in, want := range cases {
		if got := command(in); got != want {
			t.Fatalf("%q: ожидали %q, получили %q", in, want, got)
		}
	}
}
