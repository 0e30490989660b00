package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/traction-pm/traction/pkg/api"
	"github.com/traction-pm/traction/pkg/auth"
	"github.com/traction-pm/traction/pkg/config"
	"github.com/traction-pm/traction/pkg/observability"
	"github.com/traction-pm/traction/pkg/seed"
	"github.com/traction-pm/traction/pkg/store"
)

// Dispatcher
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint, split from main for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runServer(stderr)
	}

	switch args[1] {
	case "server", "serve":
		return runServer(stderr)
	case "migrate":
		return runMigrate(stdout, stderr)
	case "seed":
		return runSeed(stdout, stderr)
	case "token":
		return runToken(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		if strings.HasPrefix(args[1], "-") {
			return runServer(stderr)
		}
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Traction - project management API")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: traction <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve     Start the API server (default)")
	fmt.Fprintln(w, "  migrate   Apply pending schema migrations and exit")
	fmt.Fprintln(w, "  seed      Load demo users and a sample project")
	fmt.Fprintln(w, "  token     Mint a development JWT for a user id")
	fmt.Fprintln(w, "  help      Show this help")
	fmt.Fprintln(w, "")
}

func setupLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lv = slog.LevelDebug
	case "WARN":
		lv = slog.LevelWarn
	case "ERROR":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
	slog.SetDefault(logger)
	return logger
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return st, nil
}

func runServer(stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logger := setupLogger(cfg.LogLevel)
	ctx := context.Background()

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer st.Close()
	logger.Info("database ready", "driver", cfg.DBDriver)

	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "traction-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		SampleRate:     cfg.Telemetry.SampleRate,
		BatchTimeout:   5 * time.Second,
		Enabled:        cfg.Telemetry.Enabled,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		fmt.Fprintf(stderr, "telemetry: %v\n", err)
		return 1
	}

	validator, err := auth.NewTokenValidator([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintf(stderr, "auth: %v\n", err)
		return 1
	}

	server := api.NewServer(st)
	limiter := api.NewRateLimiter(int(cfg.RateLimitPerSecond), cfg.RateLimitBurst)

	// Middleware chain, outermost first: request id, CORS, rate limit,
	// panic recovery, telemetry, then auth in front of the mux.
	var handler http.Handler = server.Routes()
	handler = auth.NewMiddleware(validator, st)(handler)
	handler = obs.Middleware(handler)
	handler = api.RecoverMiddleware(handler)
	handler = limiter.Middleware(handler)
	handler = auth.CORSMiddleware(cfg.CORSOrigins)(handler)
	handler = auth.RequestIDMiddleware(handler)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			return 1
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
		if err := obs.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}
	return 0
}

func runMigrate(stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	setupLogger(cfg.LogLevel)

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer st.Close()

	fmt.Fprintln(stdout, "migrations applied")
	return 0
}

func runSeed(stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	setupLogger(cfg.LogLevel)

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer st.Close()

	if err := seed.Run(context.Background(), st); err != nil {
		fmt.Fprintf(stderr, "seed: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "seed complete")
	return 0
}

// runToken mints a development JWT for an existing user. Production token
// issuance lives with the identity provider, not here.
func runToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	userID := fs.String("user", "", "user id to mint a token for")
	email := fs.String("email", "", "email claim (defaults to the stored one)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *userID == "" {
		fmt.Fprintln(stderr, "token: -user is required")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	setupLogger(cfg.LogLevel)

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer st.Close()

	u, err := st.GetUser(context.Background(), *userID)
	if err != nil {
		fmt.Fprintf(stderr, "token: user %s: %v\n", *userID, err)
		return 1
	}
	claimEmail := u.Email
	if *email != "" {
		claimEmail = *email
	}

	validator, err := auth.NewTokenValidator([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintf(stderr, "auth: %v\n", err)
		return 1
	}
	token, err := validator.Mint(u.ID, claimEmail, *ttl)
	if err != nil {
		fmt.Fprintf(stderr, "token: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}
