// Package adminhttp serves the operator HTTP surface: health, stats, reload
// and backup.
package adminhttp

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/backup"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/outputfmt"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/stats"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

type Backupper interface {
	Run(ctx context.Context) (backup.Result, error)
}

type Options struct {
	Listen string
	// Token, when set, is required as a bearer token on every route but
	// /health.
	Token    string
	Reporter *stats.Reporter
	Reloader Reloader
	Backup   Backupper
	Logger   *slog.Logger
	Now      func() time.Time
}

type Server struct {
	opts    Options
	echo    *echo.Echo
	started time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

type reloadResponse struct {
	Changed bool `json:"changed"`
}

type backupResponse struct {
	Dir    string   `json:"dir"`
	RunID  string   `json:"run_id"`
	Files  int      `json:"files"`
	Pruned []string `json:"pruned,omitempty"`
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Listen = strings.TrimSpace(opts.Listen)
	opts.Token = strings.TrimSpace(opts.Token)

	s := &Server{opts: opts, started: opts.Now()}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			opts.Logger.Debug("adminhttp_request",
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency.String(),
			)
			return nil
		},
	}))

	e.GET("/health", s.handleHealth)
	e.GET("/stats", s.handleStats, s.requireToken)
	e.POST("/admin/reload", s.handleReload, s.requireToken)
	e.POST("/admin/backup", s.handleBackup, s.requireToken)
	s.echo = e
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("adminhttp_start", "listen", s.opts.Listen, "auth", s.opts.Token != "")
		errCh <- s.echo.Start(s.opts.Listen)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.opts.Logger.Info("adminhttp_stop")
	return nil
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.opts.Token == "" {
			return next(c)
		}
		got, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(s.opts.Token)) != 1 {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		}
		return next(c)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	now := s.opts.Now()
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: now,
		Uptime:    now.Sub(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	if s.opts.Reporter == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "stats unavailable"})
	}
	return c.JSON(http.StatusOK, s.opts.Reporter.Summary(s.opts.Now()))
}

func (s *Server) handleReload(c echo.Context) error {
	if s.opts.Reloader == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "reload unavailable"})
	}
	changed, err := s.opts.Reloader.Reload(c.Request().Context())
	if err != nil {
		s.opts.Logger.Warn("adminhttp_reload_failed", "error", outputfmt.FormatErrorForDisplay(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "reload failed"})
	}
	s.opts.Logger.Info("adminhttp_reload", "changed", changed)
	return c.JSON(http.StatusOK, reloadResponse{Changed: changed})
}

func (s *Server) handleBackup(c echo.Context) error {
	if s.opts.Backup == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "backup unavailable"})
	}
	res, err := s.opts.Backup.Run(c.Request().Context())
	if err != nil {
		s.opts.Logger.Warn("adminhttp_backup_failed", "error", outputfmt.FormatErrorForDisplay(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "backup failed"})
	}
	return c.JSON(http.StatusOK, backupResponse{
		Dir:    res.Dir,
		RunID:  res.Manifest.RunID,
		Files:  res.Copied(),
		Pruned: res.Pruned,
	})
}
