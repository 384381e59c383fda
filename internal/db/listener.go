package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

const ReportChannel = "report_changes"

// Listener слушает LISTEN/NOTIFY на отдельном (не пуловом) соединении pgx.
type Listener struct {
	dsn     string
	channel string
	retry   time.Duration
	log     *zap.Logger
}

func NewListener(dsn string, log *zap.Logger) *Listener {
	return &Listener{dsn: dsn, channel: ReportChannel, retry: 2 * time.Second, log: log}
}

// Listen возвращает канал изменений; он закрывается при отмене ctx.
// Первое подключение синхронное, чтобы ошибка конфигурации была видна сразу.
// После переподключения отправляется ChangeResync.
func (l *Listener) Listen(ctx context.Context) (<-chan models.ReportChange, error) {
	conn, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan models.ReportChange, 16)
	go func() {
		defer close(out)
		for {
			err := l.pump(ctx, conn, out)
			_ = conn.Close(context.Background())
			if ctx.Err() != nil {
				return
			}
			l.log.Warn("report listener dropped, reconnecting", zap.Error(err))

			if conn = l.reconnect(ctx); conn == nil {
				return
			}
			select {
			case out <- models.ReportChange{Op: models.ChangeResync}:
			case <-ctx.Done():
				_ = conn.Close(context.Background())
				return
			}
		}
	}()
	return out, nil
}

// reconnect повторяет попытки до успеха; nil — только при отмене ctx.
func (l *Listener) reconnect(ctx context.Context) *pgx.Conn {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
		conn, err := l.connect(ctx)
		if err == nil {
			return conn
		}
		l.log.Warn("report listener reconnect failed", zap.Error(err))
	}
}

func (l *Listener) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	return conn, nil
}

func (l *Listener) pump(ctx context.Context, conn *pgx.Conn, out chan<- models.ReportChange) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var ch models.ReportChange
		if err := json.Unmarshal([]byte(n.Payload), &ch); err != nil {
			l.log.Warn("bad report notification payload", zap.String("payload", n.Payload), zap.Error(err))
			continue
		}
		select {
		case out <- ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
