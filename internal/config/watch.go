// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package config

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the global configuration whenever the config file changes
// on disk and invokes onReload with the fresh config. It returns a stop
// function that shuts the watcher down.
//
// Editors replace files rather than writing in place, so the watcher
// observes the config directory and filters events by name.
func Watch(onReload func(*Config)) (stop func(), err error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != filepath.Base(path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load()
				if err != nil {
					log.Printf("config: reload failed, keeping previous: %v", err)
					continue
				}
				SetGlobal(cfg)
				if onReload != nil {
					onReload(cfg)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config: watcher error: %v", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
