package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/api"
	"github.com/btouchard/beacon/internal/bus"
	"github.com/btouchard/beacon/internal/config"
	"github.com/btouchard/beacon/internal/hub"
	beaconmcp "github.com/btouchard/beacon/internal/mcp"
	"github.com/btouchard/beacon/internal/notify"
	"github.com/btouchard/beacon/internal/store"
	"github.com/btouchard/beacon/internal/summarize"
	"github.com/btouchard/beacon/internal/tunnel"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "version":
		fmt.Printf("beacon %s\n", version)
	case "check":
		cmdCheck(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: beacon <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Start the Beacon notification hub\n")
	fmt.Fprintf(os.Stderr, "  check     Validate configuration\n")
	fmt.Fprintf(os.Stderr, "  version   Print version\n")
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	slog.Info("starting beacon",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	_, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("configuration is valid")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Server.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlers := []slog.Handler{
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	}

	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			slog.Warn("failed to open log file, using stdout only", "path", cfg.Server.LogFile, "error", err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		}
	}

	logger := slog.New(slog.NewMultiHandler(handlers...))
	slog.SetDefault(logger)
}

// newSummarizer builds the configured summarization backend, or nil when the
// pipeline is disabled.
func newSummarizer(cfg *config.Config) summarize.Summarizer {
	if !cfg.Summarize.Enabled {
		return nil
	}

	if cfg.Summarize.Provider == "anthropic" {
		s, err := summarize.NewAnthropic(cfg.Summarize.APIKey, cfg.Summarize.Model, cfg.Summarize.Timeout)
		if err != nil {
			slog.Warn("anthropic summarizer unavailable, enrichment disabled", "error", err)
			return nil
		}
		return s
	}

	return &summarize.ClaudeCLI{
		Path:    cfg.Summarize.ClaudePath,
		Model:   cfg.Summarize.Model,
		Timeout: cfg.Summarize.Timeout,
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// --- Notification Store ---
	st := store.New(cfg.Store.Path)
	slog.Info("notification store loaded", "path", cfg.Store.Path, "count", st.Len())

	// --- Event Bus ---
	eventBus := bus.New()

	// --- Notifier Dispatcher ---
	var dispatcher hub.Notifier
	if cfg.Notifier.Enabled {
		dispatcher = notify.NewDispatcher(notify.ForHost())
	}

	// --- Hub ---
	openURL := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	h := hub.New(st, eventBus, newSummarizer(cfg), dispatcher, hub.Options{
		SummarizeEnabled: cfg.Summarize.Enabled,
		MinLength:        cfg.Summarize.MinLength,
		CodeCmd:          cfg.Editor.CodeCmd,
		OpenURL:          openURL,
	})

	// --- MCP Server ---
	mcpServer := beaconmcp.NewServer(&beaconmcp.Deps{
		Hub:     h,
		Version: version,
	})
	mcpHTTP := server.NewStreamableHTTPServer(mcpServer)

	// --- HTTP Router ---
	r := chi.NewRouter()
	r.Mount("/", api.New(h, api.Options{CodeCmd: cfg.Editor.CodeCmd}).Router())
	r.Handle("/mcp", mcpHTTP)

	// --- HTTP Server ---
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: the SSE stream must outlive any fixed bound;
		// its handler manages its own deadlines.
		IdleTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("beacon is ready", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- Optional ngrok tunnel ---
	if cfg.Tunnel.Enabled {
		tun := tunnel.NewNgrok(cfg.Tunnel.AuthToken, cfg.Tunnel.Domain)
		publicURL, err := tun.Start(ctx, addr)
		if err != nil {
			return fmt.Errorf("starting tunnel: %w", err)
		}
		defer func() { _ = tun.Close() }()

		go func() {
			slog.Info("serving on tunnel", "public_url", publicURL)
			if err := srv.Serve(tun.Listener()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
