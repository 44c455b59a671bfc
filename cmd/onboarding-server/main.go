package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pranacare/onboarding/internal/config"
	"github.com/pranacare/onboarding/internal/domain/onboarding"
	"github.com/pranacare/onboarding/internal/platform/middleware"
	"github.com/pranacare/onboarding/internal/platform/session"
	"github.com/pranacare/onboarding/internal/platform/telemetry"
	"github.com/pranacare/onboarding/internal/platform/view"
)

// errInvalidDraft makes the validate command exit non-zero.
var errInvalidDraft = errors.New("draft has validation errors")

func main() {
	rootCmd := &cobra.Command{
		Use:   "onboarding-server",
		Short: "Patient onboarding web server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the onboarding server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [draft.json]",
		Short: "Validate a patient form draft read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		// Validation failures are reported on stdout; skip cobra's usage dump.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open draft: %w", err)
				}
				defer f.Close()
				in = f
			}
			return validateDraft(in, cmd.OutOrStdout())
		},
	}
}

func validateDraft(in io.Reader, out io.Writer) error {
	var d onboarding.Draft
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return fmt.Errorf("decode draft: %w", err)
	}
	if _, err := onboarding.ParseSex(string(d.Sex)); err != nil {
		return err
	}

	errs := onboarding.Validate(d)
	if errs.Valid() {
		fmt.Fprintln(out, "ok")
		return nil
	}
	for _, f := range errs.Fields() {
		fmt.Fprintf(out, "%s: %s\n", f, errs[f])
	}
	return errInvalidDraft
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// server bundles the echo instance with the session registry it serves.
type server struct {
	echo     *echo.Echo
	sessions *session.Store[*onboarding.Flow]
}

func newServer(cfg *config.Config, logger zerolog.Logger) (*server, error) {
	renderer, err := view.NewRenderer(map[string]any{
		"brand":   cfg.BrandName,
		"tagline": cfg.BrandTagline,
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	catalog, err := view.DefaultCatalog()
	if err != nil {
		return nil, err
	}

	policy := onboarding.Policy{AllowSkip: cfg.AllowIdentitySkip}
	submitter := onboarding.NewLogSubmitter(logger)
	sessions := session.NewStore(cfg.SessionTTL, func() *onboarding.Flow {
		return onboarding.NewFlow(policy, submitter)
	})

	hcfg := onboarding.HandlerConfig{
		GoogleClientID: cfg.GoogleClientID,
		QRParam:        cfg.QRParam,
		AllowSkip:      cfg.AllowIdentitySkip,
	}
	var metrics *telemetry.Provider
	if cfg.MetricsEnabled {
		metrics = telemetry.NewProvider()
		metrics.ReportSessions(sessions.Len)
		hcfg.Events = metrics
	}

	handler, err := onboarding.NewHandler(catalog, hcfg, logger)
	if err != nil {
		return nil, err
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	// Requests that never touch session state.
	stateless := func(c echo.Context) bool {
		p := c.Request().URL.Path
		return p == "/health" || p == "/metrics" || p == "/api/v1/validate" || strings.HasPrefix(p, "/static/")
	}

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	if metrics != nil {
		e.Use(metrics.Middleware())
	}
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RateLimit(rateLimitCfg))
	e.Use(session.Middleware(sessions, session.CookieConfig{
		Secure:  cfg.SessionCookieSecure,
		TTL:     cfg.SessionTTL,
		Skipper: stateless,
	}))
	e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper:        stateless,
		TokenLookup:    "form:_csrf,header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.SessionCookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions.Len(),
		})
	})
	if metrics != nil {
		e.GET("/metrics", metrics.Handler())
	}
	e.StaticFS("/static", view.StaticFS())

	handler.RegisterRoutes(e, e.Group("/api/v1"))

	return &server{echo: e, sessions: sessions}, nil
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.GoogleClientID == "" {
		logger.Warn().Msg("GOOGLE_CLIENT_ID is not set; the sign-in button will not load")
	}

	srv, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	// Session janitor
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go srv.sessions.Run(janitorCtx, cfg.SessionSweep, func(removed int) {
		logger.Debug().Int("removed", removed).Int("active", srv.sessions.Len()).Msg("expired sessions swept")
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = srv.echo.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.echo.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopJanitor()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.echo.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
