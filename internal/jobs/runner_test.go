package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestRunner_SurvivesPanicAndCountsErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, zap.NewNop())

	errBefore := testutil.ToFloat64(jobErrors.WithLabelValues("flaky"))
	var calls atomic.Int32
	r.Every(5*time.Millisecond, "flaky", func(context.Context) error {
		switch calls.Add(1) {
		case 1:
			panic("boom")
		case 2:
			return errors.New("temporary")
		}
		return nil
	})

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("задача перестала запускаться после паники")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	r.Wait()

	if got := testutil.ToFloat64(jobErrors.WithLabelValues("flaky")) - errBefore; got < 2 {
		t.Fatalf("ожидали минимум 2 ошибки (паника и error), получили %v", got)
	}
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestDBPing_HasDeadline(t *testing.T) {
	job := DBPing(pingerFunc(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("нет дедлайна")
		}
		return nil
	}))
	if err := job(context.Background()); err != nil {
		t.Fatal(err)
	}
}
