// Package app содержит HTTP API: вход ученика по QR, вход сотрудников, панель дежурных,
// управление классами и живая лента по websocket.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/auth"
	"github.com/Spok95/lapor-jamkos/internal/lifecycle"
	"github.com/Spok95/lapor-jamkos/internal/live"
	"github.com/Spok95/lapor-jamkos/internal/metrics"
	"github.com/Spok95/lapor-jamkos/internal/models"
	"github.com/Spok95/lapor-jamkos/internal/registry"
)

type ReportLister interface {
	AllReports(ctx context.Context) ([]models.Report, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type ServerConfig struct {
	PublicBaseURL string
	Location      *time.Location
	SessionTTL    time.Duration
	SecureCookies bool
	// LoginPerMinute: попыток входа в минуту с одного IP.
	LoginPerMinute int
}

type Server struct {
	engine   *lifecycle.Engine
	registry *registry.Registry
	auth     *auth.Service
	hub      *live.Hub
	reports  ReportLister
	pinger   Pinger
	cfg      ServerConfig
	log      *zap.Logger
	login    *loginLimiter
}

func NewServer(engine *lifecycle.Engine, reg *registry.Registry, authSvc *auth.Service, hub *live.Hub,
	reports ReportLister, pinger Pinger, cfg ServerConfig, log *zap.Logger) *Server {
	if cfg.LoginPerMinute <= 0 {
		cfg.LoginPerMinute = 10
	}
	return &Server{
		engine:   engine,
		registry: reg,
		auth:     authSvc,
		hub:      hub,
		reports:  reports,
		pinger:   pinger,
		cfg:      cfg,
		log:      log,
		login:    newLoginLimiter(cfg.LoginPerMinute, cfg.LoginPerMinute),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.log), requestLogger(s.log), securityHeaders())

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/", s.index)

	api := r.Group("/api")
	api.GET("/scan", withOp("scan"), s.scan)
	api.POST("/reports", withOp("submit"), s.submit)

	api.POST("/auth/login", s.login.middleware(), withOp("login"), s.signIn)
	api.POST("/auth/logout", s.signOut)
	api.GET("/auth/session", s.session)

	admin := api.Group("/admin", auth.RequireSession(s.auth), s.deviceID())
	admin.GET("/dashboard", withOp("dashboard"), s.dashboard)
	admin.GET("/reports", withOp("reports.list"), s.listReports)
	admin.GET("/reports/export.xlsx", withOp("reports.export"), s.exportReports)
	admin.POST("/reports/:id/process", withOp("reports.process"), s.processReport)
	admin.GET("/triage/defaults", withOp("triage.defaults"), s.triageDefaults)

	admin.GET("/classes", withOp("classes.list"), s.listClasses)
	admin.POST("/classes", withOp("classes.create"), s.createClass)
	admin.GET("/classes/export.xlsx", withOp("classes.export"), s.exportClasses)
	admin.PATCH("/classes/:id", withOp("classes.rename"), s.renameClass)
	admin.DELETE("/classes/:id", withOp("classes.delete"), s.deleteClass)
	admin.GET("/classes/:id/qr", withOp("classes.qr"), s.classQR)
	admin.GET("/classes/:id/qr.png", withOp("classes.qr_png"), s.classQRPNG)

	admin.GET("/live", s.liveFeed)
	return r
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.pinger.Ping(ctx); err != nil {
		c.String(http.StatusServiceUnavailable, "db not ok: "+err.Error())
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	c.String(http.StatusOK, "ok")
}

type HTTPServer struct {
	srv *http.Server
}

// StartHTTP запускает сервер и гасит его при отмене ctx.
func StartHTTP(ctx context.Context, addr string, h http.Handler, log *zap.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}

func (h *HTTPServer) Addr() string { return h.srv.Addr }
