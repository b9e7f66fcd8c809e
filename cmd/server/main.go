// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// The dev backend: REST API, WebSocket fanout, SQLite persistence.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/swarm-squad/ep2-tui/internal/config"
	"github.com/swarm-squad/ep2-tui/internal/server"
	"github.com/swarm-squad/ep2-tui/internal/server/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = defaultDBPath()
	}

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	defer store.Close()

	if err := store.SeedFleet(cfg.Simulator.Fleet); err != nil {
		log.Fatalf("server: seed fleet: %v", err)
	}

	srv := server.New(&cfg.Server, store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("server: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server: shutdown: %v", err)
	}
	<-done
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func defaultDBPath() string {
	if err := config.EnsureConfigDir(); err == nil {
		if dir, err := config.ConfigDir(); err == nil {
			return filepath.Join(dir, "swarm.db")
		}
	}
	return "swarm.db"
}
