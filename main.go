// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Swarm Squad: a terminal chat front end for watching a simulated vehicle
// fleet and its agents talk, room by room, in real time.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/swarm-squad/ep2-tui/internal/api"
	"github.com/swarm-squad/ep2-tui/internal/config"
	"github.com/swarm-squad/ep2-tui/internal/realtime"
	"github.com/swarm-squad/ep2-tui/internal/ui/chat"
	"github.com/swarm-squad/ep2-tui/internal/ui/styles"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default ~/.swarm-squad/config.toml)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarm-squad: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	// Stdout belongs to the UI; logs go to a file.
	if f := openLogFile(); f != nil {
		defer f.Close()
		log.SetOutput(f)
	}

	styles.ApplyTheme(cfg.UI.Theme)

	// Pick up config edits without a restart; only the theme takes
	// effect mid-session.
	if stopWatch, err := config.Watch(func(fresh *config.Config) {
		styles.ApplyTheme(fresh.UI.Theme)
	}); err == nil {
		defer stopWatch()
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       time.Duration(cfg.API.TimeoutSecs) * time.Second,
		FallbackRooms: cfg.Realtime.FallbackRooms,
	})

	forwarder := &chat.Forwarder{}
	manager := realtime.New(realtime.Options{
		URL:       cfg.Realtime.URL,
		BaseDelay: time.Duration(cfg.Realtime.ReconnectBaseMS) * time.Millisecond,
		CapDelay:  time.Duration(cfg.Realtime.ReconnectCapMS) * time.Millisecond,
	}, forwarder.Send)

	m := chat.New(cfg, client, manager)
	p := tea.NewProgram(m, tea.WithAltScreen())
	forwarder.Attach(p)

	if _, err := p.Run(); err != nil {
		manager.Dispose()
		fmt.Fprintf(os.Stderr, "swarm-squad: %v\n", err)
		os.Exit(1)
	}
	manager.Dispose()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func openLogFile() *os.File {
	if err := config.EnsureConfigDir(); err != nil {
		return nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "client.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil
	}
	return f
}
