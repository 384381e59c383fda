package jobs

import (
	"context"
	"time"

	"github.com/Spok95/lapor-jamkos/internal/ctxutil"
	"github.com/Spok95/lapor-jamkos/internal/metrics"
)

type Refresher interface {
	Refresh(ctx context.Context) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// LiveRefresh пересчитывает снимок по таймеру, чтобы счётчики «сегодня» обнулялись в полночь без событий.
func LiveRefresh(h Refresher) Job {
	return h.Refresh
}

func DBPing(p Pinger) Job {
	return func(ctx context.Context) error {
		ctx, cancel := ctxutil.WithDBTimeout(ctx)
		defer cancel()
		start := time.Now()
		err := p.Ping(ctx)
		metrics.ObserveDBPing(time.Since(start))
		return err
	}
}
