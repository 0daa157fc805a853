package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mdt/mdt/internal/config"
	"github.com/mdt/mdt/internal/domain/casedoc"
	"github.com/mdt/mdt/internal/domain/mdt"
	"github.com/mdt/mdt/internal/domain/patient"
	"github.com/mdt/mdt/internal/domain/user"
	"github.com/mdt/mdt/internal/domain/vocab"
	"github.com/mdt/mdt/internal/platform/auth"
	"github.com/mdt/mdt/internal/platform/db"
	"github.com/mdt/mdt/internal/platform/metrics"
	"github.com/mdt/mdt/internal/platform/middleware"
)

const shutdownTimeout = 10 * time.Second

// app holds the wired services of one process.
type app struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	logger zerolog.Logger
	tokens *auth.TokenIssuer

	patients *patient.Service
	cases    *mdt.Service
	users    *user.Service
	vocab    *vocab.Service
}

func newApp(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *app {
	tx := db.NewTransactor(pool, cfg.DBTimeout)
	patientRepo := patient.NewRepoPG(pool)

	renderer := casedoc.NewRenderer(casedoc.Margins{
		Top:    cfg.PDFMarginTopMM,
		Right:  cfg.PDFMarginRightMM,
		Bottom: cfg.PDFMarginBottomMM,
		Left:   cfg.PDFMarginLeftMM,
	})

	cases := mdt.NewService(mdt.Repositories{
		Cases:      mdt.NewCaseRepoPG(pool),
		Reports:    mdt.NewReportRepoPG(pool),
		Treatments: mdt.NewTreatmentRepoPG(pool),
		Consensus:  mdt.NewConsensusRepoPG(pool),
		Patients:   patientRepo,
	}, renderer, tx, logger)

	return &app{
		cfg:      cfg,
		pool:     pool,
		logger:   logger,
		tokens:   auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenTTL),
		patients: patient.NewService(patientRepo, tx, logger),
		cases:    cases,
		users:    user.NewService(user.NewRepoPG(pool), tx, logger),
		vocab:    vocab.NewService(vocab.NewRepoPG(pool), tx, logger),
	}
}

func (a *app) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(a.logger, metrics.RecordStoreUnavailable)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(a.cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout))
	e.Use(middleware.Recovery(a.logger))
	e.Use(auth.Middleware(a.tokens))

	// Operational endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "app": a.cfg.AppName})
	})
	e.GET("/health/db", db.HealthHandler(a.pool, a.cfg.DBTimeout, a.logger))
	e.GET("/metrics", metrics.Handler())

	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = a.cfg.RateLimitRPS
	rl.BurstSize = a.cfg.RateLimitBurst

	apiV1 := e.Group("/api/v1", middleware.RateLimit(rl))
	authed := apiV1.Group("", auth.RequireAuthenticated())
	admin := apiV1.Group("/admin", auth.RequireAdmin())

	user.NewHandler(a.users, a.tokens, a.cfg.IsProduction()).RegisterRoutes(apiV1, authed, admin)
	patient.NewHandler(a.patients).RegisterRoutes(authed)
	mdt.NewHandler(a.cases).RegisterRoutes(authed)
	vocab.NewHandler(a.vocab).RegisterRoutes(authed)

	return e
}

// bootstrap creates the configured administrator on first start.
func (a *app) bootstrap(ctx context.Context) error {
	if a.cfg.BootstrapAdminPassword == "" {
		a.logger.Warn().Msg("BOOTSTRAP_ADMIN_PASSWORD not set, skipping administrator bootstrap")
		return nil
	}
	_, err := a.users.EnsureAdmin(ctx, a.cfg.BootstrapAdminEmail, a.cfg.BootstrapAdminPassword)
	return err
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func (a *app) serve(ctx context.Context) error {
	if err := a.bootstrap(ctx); err != nil {
		return err
	}

	e := a.router()
	addr := ":" + a.cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}
