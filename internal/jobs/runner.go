package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/ctxutil"
	"github.com/Spok95/lapor-jamkos/internal/observability"
)

type Job func(ctx context.Context) error

// Runner запускает периодические задачи до отмены ctx; Wait дожидается их выхода.
type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner { return &Runner{ctx: ctx, log: log} }

func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.runOnce(name, fn)
			}
		}
	}()
}

func (r *Runner) Wait() { r.wg.Wait() }

// runOnce — один прогон с метриками; паника в задаче не роняет цикл.
func (r *Runner) runOnce(name string, fn Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			jobErrors.WithLabelValues(name).Inc()
			r.log.Error("job panic", zap.String("job", name), zap.Any("panic", rec))
			observability.CaptureErr(fmt.Errorf("panic in job %s: %v", name, rec))
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	ctx := ctxutil.WithOp(r.ctx, "job:"+name)
	if err := fn(ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
	}
}
