package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/statusdeck/statusdeck/internal/logger"
	"github.com/statusdeck/statusdeck/internal/login"
	"github.com/statusdeck/statusdeck/internal/server"
	"github.com/statusdeck/statusdeck/internal/session"
	"github.com/statusdeck/statusdeck/internal/telemetry"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"STATUSDECK_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"STATUSDECK_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"STATUSDECK_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"STATUSDECK_CORS_ORIGINS"`

	// Google OAuth configuration
	ClientID      string        `help:"Google OAuth client ID" default:"" env:"STATUSDECK_GOOGLE_CLIENT_ID"`
	ClientSecret  string        `help:"Google OAuth client secret" default:"" env:"STATUSDECK_GOOGLE_CLIENT_SECRET"`
	CallbackURL   string        `help:"Google OAuth callback URL" default:"" env:"STATUSDECK_GOOGLE_CALLBACK_URL"`
	SessionSecret string        `help:"secret key for HMAC signing of session tokens" env:"STATUSDECK_SESSION_SECRET"`
	SessionTTL    time.Duration `help:"session TTL" default:"168h" env:"STATUSDECK_SESSION_TTL"`

	// Operational modes
	Tracing bool `help:"enable tracing" default:"false" env:"STATUSDECK_TRACING"`

	Store StoreFlags `embed:""`
}

func (c *ServerCmd) Validate() error {
	if c.ClientID != "" && len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "statusdeck-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	dir, closeStore, err := c.Store.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	log.Info().Str("store_type", c.Store.StoreType).Msg("Store ready")

	var auth *login.Google
	if c.ClientID != "" {
		// Bootstrap the account during the callback so the dashboard's
		// first request never races the org creation.
		resolver := session.NewResolver(dir.Users, dir.Accounts)
		onSignIn := func(ctx context.Context, identity login.Identity) error {
			sess, err := resolver.Resolve(ctx, identity)
			if err != nil {
				return err
			}
			sess.Close()
			return nil
		}

		auth, err = login.NewGoogle(c.ClientID, c.ClientSecret, c.CallbackURL, []byte(c.SessionSecret), c.SessionTTL, onSignIn)
		if err != nil {
			return err
		}
	} else {
		log.Warn().Msg("Google OAuth is not configured, dashboard API is disabled")
	}

	srv := server.New(dir, auth)
	defer srv.Close()

	handler := srv.Handler(log, c.CORSOrigins)
	if c.Tracing {
		handler = otelhttp.NewHandler(handler, "statusdeck-server")
	}

	httpServer := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", c.Listen).Msg("HTTP server listening")
		if c.Cert != "" && c.Key != "" {
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
		} else {
			errCh <- httpServer.ListenAndServe()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
