package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcoalonso/nytpopular/internal/api"
	"github.com/marcoalonso/nytpopular/internal/config"
	"github.com/marcoalonso/nytpopular/internal/controller"
	"github.com/marcoalonso/nytpopular/internal/netmon"
	"github.com/marcoalonso/nytpopular/internal/store"
	"github.com/marcoalonso/nytpopular/internal/tui"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	favStore, err := store.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer favStore.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(cfg.API.BaseURL, cfg.APIKey, cfg.API.Timeout)
	monitor := netmon.New(cfg.Network.ProbeAddr, cfg.Network.ProbeInterval)
	ctrl := controller.New(client, favStore, monitor, logger)

	go monitor.Run(ctx)
	go ctrl.Run(ctx)

	p := tea.NewProgram(tui.New(ctx, ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes structured logs to a file; the TUI owns the terminal.
func newLogger(level string) (*slog.Logger, func(), error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	return logger, func() { f.Close() }, nil
}
