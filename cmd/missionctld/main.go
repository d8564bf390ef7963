// Command missionctld is the mission-control server daemon. It serves the
// REST API and the SSE event stream over the task store, agent cards, and
// task queue mirror.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openclaw/missionctl/agent"
	"github.com/openclaw/missionctl/calendar"
	"github.com/openclaw/missionctl/config"
	"github.com/openclaw/missionctl/cron"
	"github.com/openclaw/missionctl/event"
	"github.com/openclaw/missionctl/internal/version"
	"github.com/openclaw/missionctl/memory"
	"github.com/openclaw/missionctl/queue"
	"github.com/openclaw/missionctl/server"
	"github.com/openclaw/missionctl/server/api"
	"github.com/openclaw/missionctl/server/ws"
	"github.com/openclaw/missionctl/task"
)

var configPath = flag.String("config", "missionctl.yaml", "path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.DefaultConfig()
	} else if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	logger.Info("starting missionctld",
		"version", version.Version,
		"commit", version.Commit,
	)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir %s: %v", cfg.DataDir, err)
	}

	store, err := task.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to open task store: %v", err)
	}
	defer store.Close()
	store.AllowCycles = cfg.Tasks.AllowCycles

	memStore, err := memory.NewStore(store.DB())
	if err != nil {
		log.Fatalf("Failed to init memory store: %v", err)
	}
	calStore, err := calendar.NewStore(store.DB())
	if err != nil {
		log.Fatalf("Failed to init calendar store: %v", err)
	}

	bus := event.NewInMemoryBus()
	hub := ws.NewHub(logger)
	detach := hub.Attach(bus)
	defer detach()

	handlers := &api.Handlers{
		Tasks:    task.NewService(store, bus, logger),
		Agents:   agent.NewRegistry(cfg.AgentsPath()),
		Queue:    queue.NewFile(cfg.QueuePath()),
		Memory:   memStore,
		Calendar: calStore,
		Cron:     cron.NewClient(cfg.Cron.Bin),
		System:   store,
		Logger:   logger,
		Version:  version.Version,
	}

	srv := server.New(*cfg, handlers, hub, version.Version, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Printf("Mission Control API running on %s\n", cfg.Server.Addr)
	fmt.Printf("Database: %s\n", cfg.DBPath())
	fmt.Printf("Task queue: %s\n", cfg.QueuePath())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case <-sigCh:
		fmt.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Error("server stop error", "error", err)
		}
		fmt.Println("Shutdown complete")
	}
}
