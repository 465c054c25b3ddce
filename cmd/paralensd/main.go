// Command paralensd runs the Paralens background service: the agent endpoint
// the browser extension's content script talks to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/paralens-ai/paralens/internal/agent"
	"github.com/paralens-ai/paralens/internal/config"
	"github.com/paralens-ai/paralens/internal/history"
	"github.com/paralens-ai/paralens/internal/logging"
	"github.com/paralens-ai/paralens/internal/pool"
	"github.com/paralens-ai/paralens/internal/provider"
	"github.com/paralens-ai/paralens/internal/server"
	"github.com/paralens-ai/paralens/internal/storage"
	"github.com/paralens-ai/paralens/internal/task"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "paralensd:", err)
		os.Exit(1)
	}
}

func run() error {
	homeDir, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(homeDir, ".paralens", "config.toml")

	configPath := flag.String("config", defaultConfig, "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sink, err := logging.NewSink(logging.Options{
		Path:  filepath.Join(cfg.Paths.LogsDir, "paralensd.log"),
		Level: logging.ParseLevel(cfg.Logging.Level),
	})
	if err != nil {
		return fmt.Errorf("open log sink: %w", err)
	}
	defer sink.Close()

	log := sink.Component("main")
	log.Info("starting paralensd, data dir %s", cfg.Paths.DataDir)

	store, err := storage.Open(cfg.Paths.DataDir, sink.Component("storage"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	providers := provider.NewStore(store, sink.Component("providers"))
	providers.Init()
	defer providers.Dispose()

	tasks := task.NewService(store, sink.Component("tasks"))
	tasks.Init()
	defer tasks.Dispose()

	clients, err := pool.New(pool.Options{
		Providers: providers,
		Timeout:   cfg.Agent.RequestTimeout,
		Logger:    sink.Component("pool"),
	})
	if err != nil {
		return fmt.Errorf("create client pool: %w", err)
	}

	hist, err := history.Open(cfg.Paths.HistoryDB, cfg.Agent.HistoryCap, sink.Component("history"))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer hist.Close()

	ag, err := agent.New(agent.Options{
		Tasks:   tasks,
		Pool:    clients,
		History: hist,
		Logger:  sink.Component("agent"),
	})
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}

	srv := server.New(server.Options{
		Performer:      ag,
		History:        hist,
		Providers:      providers,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         sink.Component("server"),
	})

	httpSrv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", cfg.Server.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown: %v", err)
		}
	}

	return nil
}
