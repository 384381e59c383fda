// Package bot реализует Telegram-бота дежурных: сигнал о новой заявке с кнопками,
// пошаговая обработка заявки и сводки /today, /pending.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/aggregate"
	"github.com/Spok95/lapor-jamkos/internal/ctxutil"
	"github.com/Spok95/lapor-jamkos/internal/lifecycle"
	"github.com/Spok95/lapor-jamkos/internal/metrics"
	"github.com/Spok95/lapor-jamkos/internal/models"
	"github.com/Spok95/lapor-jamkos/internal/notify"
	"github.com/Spok95/lapor-jamkos/internal/observability"
)

type Processor interface {
	Process(ctx context.Context, reportID string, in lifecycle.ProcessInput) (models.Report, error)
	Get(ctx context.Context, reportID string) (models.Report, error)
	DefaultPicketName(ctx context.Context) string
}

type Stats interface {
	Current(ctx context.Context) (aggregate.Snapshot, error)
}

type PendingLister interface {
	ReportsByStatus(ctx context.Context, limit int, statuses ...models.Status) ([]models.Report, error)
}

const pendingLimit = 10

type Bot struct {
	api     notify.Sender
	engine  Processor
	stats   Stats
	pending PendingLister
	staff   map[int64]bool
	loc     *time.Location
	log     *zap.Logger
	chats   *sessions
}

func New(api notify.Sender, engine Processor, stats Stats, pending PendingLister, staffChats []int64, loc *time.Location, log *zap.Logger) *Bot {
	staff := make(map[int64]bool, len(staffChats))
	for _, id := range staffChats {
		staff[id] = true
	}
	return &Bot{
		api:     api,
		engine:  engine,
		stats:   stats,
		pending: pending,
		staff:   staff,
		loc:     loc,
		log:     log,
		chats:   newSessions(),
	}
}

// Run обрабатывает апдейты до отмены ctx; разные чаты параллельно.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, upd)
			}()
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerErrors.Inc()
			err := fmt.Errorf("bot panic: %v", r)
			b.log.Error("bot update panicked", zap.Error(err))
			observability.CaptureErr(err)
		}
	}()

	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func deviceCtx(ctx context.Context, chatID int64, op string) context.Context {
	ctx = ctxutil.WithDevice(ctx, "tg:"+strconv.FormatInt(chatID, 10))
	return ctxutil.WithOp(ctx, op)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	if !b.staff[chatID] {
		b.answerCallback(cq.ID, "Akses ditolak")
		return
	}
	reportID, st, ok := notify.ParseTriageCallback(cq.Data)
	if !ok {
		b.answerCallback(cq.ID, "")
		return
	}
	ctx = deviceCtx(ctx, chatID, "bot.triage.start")

	cs, release := b.chats.acquire(chatID)
	defer release()

	r, err := b.engine.Get(ctx, reportID)
	if errors.Is(err, models.ErrNotFound) {
		b.answerCallback(cq.ID, "Laporan tidak ditemukan")
		return
	}
	if err != nil {
		b.fail(ctx, chatID, err)
		b.answerCallback(cq.ID, "")
		return
	}
	cs.triage = &triageState{Step: stepTeacher, ReportID: r.ID, Class: r.ClassName, Status: st}
	b.answerCallback(cq.ID, st.Label())

	suggest := ""
	if r.MissingTeacherName != nil {
		suggest = *r.MissingTeacherName
	}
	b.send(chatID, fmt.Sprintf("Kelas %s → %s\nSiapa guru yang berhalangan?", r.ClassName, st.Label()), answerKeyboard(suggest))
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.staff[chatID] {
		b.send(chatID, "🚫 Akses ditolak. Hubungi administrator.", nil)
		return
	}
	cs, release := b.chats.acquire(chatID)
	defer release()

	text := strings.TrimSpace(msg.Text)
	if cs.triage != nil {
		if IsCancelText(text) {
			cs.triage = nil
			b.send(chatID, "Dibatalkan.", tgbotapi.NewRemoveKeyboard(true))
			return
		}
		b.continueTriage(deviceCtx(ctx, chatID, "bot.triage"), chatID, cs, text)
		return
	}

	switch command(text) {
	case "/today":
		b.sendToday(deviceCtx(ctx, chatID, "bot.today"), chatID)
	case "/pending":
		b.sendPending(deviceCtx(ctx, chatID, "bot.pending"), chatID)
	default:
		b.send(chatID, helpText, nil)
	}
}

// command: первое слово в нижнем регистре без @имени_бота.
func command(text string) string {
	f := strings.Fields(text)
	if len(f) == 0 {
		return ""
	}
	cmd, _, _ := strings.Cut(strings.ToLower(f[0]), "@")
	return cmd
}

const helpText = "Lapor JAMKOS\n/today — ringkasan hari ini\n/pending — laporan yang belum ditangani\nTekan tombol pada notifikasi untuk memproses laporan."

func (b *Bot) continueTriage(ctx context.Context, chatID int64, cs *chatSession, text string) {
	st := cs.triage
	switch st.Step {
	case stepTeacher:
		teacher := strings.TrimSpace(text)
		if teacher == "" {
			b.send(chatID, "Nama guru yang berhalangan wajib diisi", nil)
			return
		}
		st.Teacher = teacher
		st.Step = stepPicket
		b.send(chatID, "Nama petugas piket?", answerKeyboard(b.engine.DefaultPicketName(ctx)))

	case stepPicket:
		r, err := b.engine.Process(ctx, st.ReportID, lifecycle.ProcessInput{
			PicketName:         text,
			MissingTeacherName: st.Teacher,
			Status:             string(st.Status),
		})
		var ve *models.ValidationError
		switch {
		case errors.As(err, &ve):
			b.send(chatID, ve.Msg, nil)
		case errors.Is(err, models.ErrNotFound):
			cs.triage = nil
			b.send(chatID, "Laporan tidak ditemukan.", tgbotapi.NewRemoveKeyboard(true))
		case err != nil:
			// состояние сохраняем: дежурный может повторить ввод
			b.fail(ctx, chatID, err)
		default:
			cs.triage = nil
			b.send(chatID, fmt.Sprintf("✅ Kelas %s: %s\nGuru: %s\nPiket: %s",
				r.ClassName, r.Status.Label(), *r.MissingTeacherName, *r.PicketName), tgbotapi.NewRemoveKeyboard(true))
		}
	}
}

func (b *Bot) sendToday(ctx context.Context, chatID int64) {
	snap, err := b.stats.Current(ctx)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.send(chatID, TodayText(snap, b.loc), nil)
}

// TodayText: сводка по корзинам за сегодня.
func TodayText(s aggregate.Snapshot, loc *time.Location) string {
	return fmt.Sprintf("📊 %s\nLaporan hari ini: %d\nBelum ditangani: %d\nSedang diproses: %d\nSelesai: %d\nTotal kelas: %d",
		s.At.In(loc).Format("02.01.2006 15:04"),
		s.Today.Total, s.Today.Unhandled, s.Today.InProgress, s.Today.Closed, s.TotalClasses)
}

func (b *Bot) sendPending(ctx context.Context, chatID int64) {
	reports, err := b.pending.ReportsByStatus(ctx, pendingLimit, models.BucketUnhandled.Statuses()...)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	if len(reports) == 0 {
		b.send(chatID, "Tidak ada laporan yang menunggu. 👍", nil)
		return
	}
	for _, r := range reports {
		b.send(chatID, notify.AlertText(r, b.loc), notify.TriageKeyboard(r.ID))
	}
}

func (b *Bot) fail(ctx context.Context, chatID int64, err error) {
	metrics.HandlerErrors.Inc()
	b.log.Error("bot operation failed", zap.Error(err))
	observability.CaptureCtxErr(ctx, err)
	b.send(chatID, "Terjadi kesalahan, silakan coba lagi.", nil)
}
