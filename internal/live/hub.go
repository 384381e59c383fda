// Package live — пересчёт агрегатов по ленте изменений и раздача снимков подписчикам.
package live

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/aggregate"
	"github.com/Spok95/lapor-jamkos/internal/metrics"
	"github.com/Spok95/lapor-jamkos/internal/models"
	"github.com/Spok95/lapor-jamkos/internal/observability"
)

type Loader interface {
	AllReports(ctx context.Context) ([]models.Report, error)
	CountClasses(ctx context.Context) (int, error)
}

// Alerter — звуковой/внешний сигнал о новой заявке. Ошибки не всплывают.
type Alerter interface {
	Alert(ctx context.Context, r models.Report) error
}

// Update: то, что получает подписчик. Каждая новая заявка попадает в NewReports
// ровно одного доставленного обновления; NewReport указывает на последнюю из них.
type Update struct {
	Snapshot   aggregate.Snapshot `json:"snapshot"`
	Alert      bool               `json:"alert"`
	NewReport  *models.Report     `json:"new_report,omitempty"`
	NewReports []models.Report    `json:"new_reports,omitempty"`
}

const alertTimeout = 10 * time.Second

type Hub struct {
	loader  Loader
	alerter Alerter
	loc     *time.Location
	recent  int
	log     *zap.Logger
	Now     func() time.Time

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	latest *Update

	refresh chan struct{}
}

func NewHub(loader Loader, alerter Alerter, loc *time.Location, recentLimit int, log *zap.Logger) *Hub {
	return &Hub{
		loader:  loader,
		alerter: alerter,
		loc:     loc,
		recent:  recentLimit,
		log:     log,
		Now:     time.Now,
		subs:    map[*Subscription]struct{}{},
		refresh: make(chan struct{}, 1),
	}
}

// Subscription — handle подписки. Release обязателен на любом пути выхода;
// повторный вызов безопасен.
type Subscription struct {
	C    <-chan Update
	c    chan Update
	hub  *Hub
	once sync.Once
}

func (s *Subscription) Release() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.c)
		s.hub.mu.Unlock()
		metrics.LiveSubscribers.Dec()
	})
}

// Subscribe сразу отдаёт последний посчитанный снимок, если он есть.
func (h *Hub) Subscribe() *Subscription {
	c := make(chan Update, 1)
	s := &Subscription{C: c, c: c, hub: h}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	if h.latest != nil {
		c <- *h.latest
	}
	h.mu.Unlock()
	metrics.LiveSubscribers.Inc()
	return s
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Current — свежий снимок в обход цикла (для обычных HTTP-запросов и бота).
func (h *Hub) Current(ctx context.Context) (aggregate.Snapshot, error) {
	_, snap, err := h.compute(ctx)
	return snap, err
}

func (h *Hub) compute(ctx context.Context) ([]models.Report, aggregate.Snapshot, error) {
	reports, err := h.loader.AllReports(ctx)
	if err != nil {
		return nil, aggregate.Snapshot{}, err
	}
	classes, err := h.loader.CountClasses(ctx)
	if err != nil {
		return nil, aggregate.Snapshot{}, err
	}
	return reports, aggregate.Compute(reports, classes, h.Now(), h.loc, h.recent), nil
}

// Refresh просит цикл пересчитать снимок (смена суток без событий).
func (h *Hub) Refresh(context.Context) error {
	select {
	case h.refresh <- struct{}{}:
	default:
	}
	return nil
}

// Run — единственный цикл обработки событий. Возвращается, когда ctx отменён
// или лента закрыта.
func (h *Hub) Run(ctx context.Context, changes <-chan models.ReportChange) {
	h.recompute(ctx, nil)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			h.recompute(ctx, &ev)
		case <-h.refresh:
			h.recompute(ctx, nil)
		}
	}
}

func (h *Hub) recompute(ctx context.Context, ev *models.ReportChange) {
	start := time.Now()
	reports, snap, err := h.compute(ctx)
	metrics.ObserveRecompute(time.Since(start))

	insert := ev != nil && ev.Op == models.ChangeInsert
	if err != nil {
		h.log.Error("live recompute failed", zap.Error(err))
		observability.CaptureErr(err)
		if !insert {
			return
		}
	}

	h.mu.Lock()
	if err != nil {
		// снимок не обновился, но о новой заявке всё равно сообщаем
		if h.latest != nil {
			snap = h.latest.Snapshot
		}
	} else {
		h.latest = &Update{Snapshot: snap}
	}
	u := Update{Snapshot: snap}
	var created models.Report
	if insert {
		created = findReport(reports, ev.ReportID)
		u.Alert = true
		u.NewReport = &created
		u.NewReports = []models.Report{created}
	}
	for s := range h.subs {
		deliver(s.c, u)
	}
	h.mu.Unlock()

	if insert {
		h.alert(ctx, created)
	}
}

// deliver не блокирует цикл: медленный подписчик получает только последний
// снимок, но тревоги вытесненных обновлений переносятся в него по порядку.
func deliver(c chan Update, u Update) {
	select {
	case c <- u:
		return
	default:
	}
	select {
	case old := <-c:
		if old.Alert {
			u.Alert = true
			u.NewReports = append(append([]models.Report(nil), old.NewReports...), u.NewReports...)
			if u.NewReport == nil {
				u.NewReport = old.NewReport
			}
		}
	default:
	}
	select {
	case c <- u:
	default:
	}
}

func (h *Hub) alert(ctx context.Context, r models.Report) {
	if h.alerter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, alertTimeout)
	defer cancel()
	if err := h.alerter.Alert(ctx, r); err != nil {
		metrics.AlertFailures.Inc()
		h.log.Debug("new report alert failed", zap.String("report_id", r.ID), zap.Error(err))
	}
}

// если снимок не загрузился, отдаём хотя бы id
func findReport(reports []models.Report, id string) models.Report {
	for _, r := range reports {
		if r.ID == id {
			return r
		}
	}
	return models.Report{ID: id, Status: models.StatusPending}
}
