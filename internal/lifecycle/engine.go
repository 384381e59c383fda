// Package lifecycle — жизненный цикл заявки: подача по QR и обработка дежурным.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/ctxutil"
	"github.com/Spok95/lapor-jamkos/internal/logging"
	"github.com/Spok95/lapor-jamkos/internal/metrics"
	"github.com/Spok95/lapor-jamkos/internal/models"
	"github.com/Spok95/lapor-jamkos/internal/prefs"
)

type ReportStore interface {
	InsertReport(ctx context.Context, classID string) (models.Report, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	UpdateTriage(ctx context.Context, id string, t models.Triage) (models.Report, error)
}

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (models.Classroom, error)
}

type Engine struct {
	reports ReportStore
	tokens  TokenValidator
	prefs   prefs.Store
	log     *zap.Logger
}

func New(reports ReportStore, tokens TokenValidator, p prefs.Store, log *zap.Logger) *Engine {
	return &Engine{reports: reports, tokens: tokens, prefs: p, log: log}
}

// Resolve — шаг сканирования: по токену находим класс для экрана подтверждения.
func (e *Engine) Resolve(ctx context.Context, token string) (models.Classroom, error) {
	c, err := e.tokens.ValidateToken(ctx, token)
	if errors.Is(err, models.ErrInvalidToken) {
		metrics.InvalidScans.Inc()
	}
	return c, err
}

// Submit создаёт ровно одну заявку в статусе pending без полей обработки.
func (e *Engine) Submit(ctx context.Context, token string) (models.Report, error) {
	c, err := e.Resolve(ctx, token)
	if err != nil {
		return models.Report{}, err
	}
	r, err := e.reports.InsertReport(ctx, c.ID)
	if errors.Is(err, models.ErrNotFound) {
		// класс удалили между сканированием и отправкой
		return models.Report{}, models.ErrInvalidToken
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("submit report: %w", err)
	}
	metrics.ReportsSubmitted.Inc()
	logging.FromContext(ctx, e.log).Info("report submitted",
		zap.String("report_id", r.ID), zap.String("class", r.ClassName))
	return r, nil
}

// ProcessInput — то, что дежурный вводит в форме обработки.
type ProcessInput struct {
	PicketName         string
	MissingTeacherName string
	Status             string
}

func (in ProcessInput) triage() (models.Triage, error) {
	picket, err := models.RequireText("picket_name", in.PicketName, "Nama petugas piket wajib diisi")
	if err != nil {
		return models.Triage{}, err
	}
	teacher, err := models.RequireText("missing_teacher_name", in.MissingTeacherName, "Nama guru yang berhalangan wajib diisi")
	if err != nil {
		return models.Triage{}, err
	}
	st, err := models.ParseTriageStatus(in.Status)
	if err != nil {
		return models.Triage{}, err
	}
	return models.Triage{PicketName: picket, MissingTeacherName: teacher, Status: st}, nil
}

// Process переводит заявку в один из статусов обработки и перезаписывает оба имени.
// Повторная обработка разрешена между любыми статусами, кроме возврата в pending.
// Конкурирующие правки двух дежурных — last write wins.
func (e *Engine) Process(ctx context.Context, reportID string, in ProcessInput) (models.Report, error) {
	t, err := in.triage()
	if err != nil {
		return models.Report{}, err
	}
	if _, err := uuid.Parse(reportID); err != nil {
		return models.Report{}, models.ErrNotFound
	}
	r, err := e.reports.UpdateTriage(ctx, reportID, t)
	if errors.Is(err, models.ErrNotFound) {
		return models.Report{}, err
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("process report: %w", err)
	}
	metrics.ReportsTriaged.WithLabelValues(string(t.Status)).Inc()
	logging.FromContext(ctx, e.log).Info("report processed",
		zap.String("report_id", r.ID), zap.String("status", string(r.Status)))

	e.rememberPicket(ctx, t.PicketName)
	return r, nil
}

// Get — заявка по id; ErrNotFound, если её нет.
func (e *Engine) Get(ctx context.Context, reportID string) (models.Report, error) {
	if _, err := uuid.Parse(reportID); err != nil {
		return models.Report{}, models.ErrNotFound
	}
	r, err := e.reports.GetReport(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}
	if r == nil {
		return models.Report{}, models.ErrNotFound
	}
	return *r, nil
}

// DefaultPicketName — сохранённое на этом устройстве имя дежурного или "".
func (e *Engine) DefaultPicketName(ctx context.Context) string {
	device, ok := ctxutil.Device(ctx)
	if !ok || e.prefs == nil {
		return ""
	}
	v, _, err := e.prefs.Get(ctx, prefs.PicketNameKey(device))
	if err != nil {
		logging.FromContext(ctx, e.log).Warn("read picket name preference", zap.Error(err))
		return ""
	}
	return v
}

// ошибки записи только логируем: заявка уже обработана
func (e *Engine) rememberPicket(ctx context.Context, name string) {
	device, ok := ctxutil.Device(ctx)
	if !ok || e.prefs == nil {
		return
	}
	if err := e.prefs.Set(ctx, prefs.PicketNameKey(device), name); err != nil {
		logging.FromContext(ctx, e.log).Warn("save picket name preference", zap.Error(err))
	}
}
