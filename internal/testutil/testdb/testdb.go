//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Spok95/lapor-jamkos/internal/db"
)

// DBHandle — живой Postgres в контейнере с применёнными миграциями.
// DSN нужен тестам LISTEN/NOTIFY, которые открывают отдельное соединение.
type DBHandle struct {
	DB     *sql.DB
	DSN    string
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("jamkos"),
		postgres.WithUsername("jamkos"),
		postgres.WithPassword("jamkos"),
		tc.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	fail := func(err error) (*DBHandle, error) {
		_ = pg.Terminate(context.Background())
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}

	database, err := sql.Open("postgres", uri)
	if err != nil {
		return fail(err)
	}
	if err := waitReady(ctx, database); err != nil {
		return fail(err)
	}
	if err := db.Migrate(database); err != nil {
		return fail(err)
	}

	return &DBHandle{
		DB:     database,
		DSN:    uri,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

// Reset очищает данные между тестами; retired_tokens тоже, иначе токены из фикстур не переиспользовать.
func (h *DBHandle) Reset(ctx context.Context) error {
	_, err := h.DB.ExecContext(ctx, `TRUNCATE reports, classes, retired_tokens, staff RESTART IDENTITY CASCADE`)
	return err
}

func waitReady(ctx context.Context, database *sql.DB) error {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := database.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}
