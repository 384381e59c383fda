package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/app"
	"github.com/Spok95/lapor-jamkos/internal/auth"
	"github.com/Spok95/lapor-jamkos/internal/bot"
	"github.com/Spok95/lapor-jamkos/internal/config"
	"github.com/Spok95/lapor-jamkos/internal/db"
	"github.com/Spok95/lapor-jamkos/internal/jobs"
	"github.com/Spok95/lapor-jamkos/internal/lifecycle"
	"github.com/Spok95/lapor-jamkos/internal/live"
	"github.com/Spok95/lapor-jamkos/internal/logging"
	"github.com/Spok95/lapor-jamkos/internal/notify"
	"github.com/Spok95/lapor-jamkos/internal/observability"
	"github.com/Spok95/lapor-jamkos/internal/prefs"
	"github.com/Spok95/lapor-jamkos/internal/registry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	zl := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		zl.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close() }()
	if err := db.Migrate(database); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}
	store := db.NewStore(database)

	var picketPrefs prefs.Store = prefs.NewMemory()
	if cfg.PrefsBackend == "redis" {
		rs := prefs.NewRedis(cfg.RedisAddr)
		defer func() { _ = rs.Close() }()
		if err := rs.Ping(ctx); err != nil {
			zl.Fatal("redis ping", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		picketPrefs = rs
	}

	reg := registry.New(store, zl)
	engine := lifecycle.New(store, reg, picketPrefs, zl)
	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL, zl)

	// без BOT_TOKEN алерты только в живой ленте дашборда
	var (
		alerter live.Alerter
		api     *tgbotapi.BotAPI
	)
	if cfg.BotToken != "" {
		api, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			zl.Fatal("telegram bot", zap.Error(err))
		}
		zl.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
		if len(cfg.StaffChatIDs) > 0 {
			alerter = notify.NewTelegramAlerter(api, cfg.StaffChatIDs, cfg.Location)
		}
	}

	hub := live.NewHub(store, alerter, cfg.Location, cfg.RecentLimit, zl)
	changes, err := db.NewListener(cfg.DatabaseURL, zl).Listen(ctx)
	if err != nil {
		zl.Fatal("report listener", zap.Error(err))
	}
	go hub.Run(ctx, changes)

	runner := jobs.New(ctx, zl)
	runner.Every(cfg.RefreshInterval, "live_refresh", jobs.LiveRefresh(hub))
	runner.Every(30*time.Second, "db_ping", jobs.DBPing(store))

	if api != nil {
		b := bot.New(api, engine, hub, store, cfg.StaffChatIDs, cfg.Location, zl)
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := api.GetUpdatesChan(u)
		go func() {
			<-ctx.Done()
			api.StopReceivingUpdates()
		}()
		go b.Run(ctx, updates)
	}

	srv := app.NewServer(engine, reg, authSvc, hub, store, store, app.ServerConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		Location:      cfg.Location,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.Env == "prod",
	}, zl)
	httpSrv := app.StartHTTP(ctx, cfg.HTTPAddr, srv.Router(), zl)
	zl.Info("lapor-jamkos started", zap.String("addr", httpSrv.Addr()), zap.String("env", cfg.Env))

	<-ctx.Done()
	zl.Info("shutting down")
	runner.Wait()
}
