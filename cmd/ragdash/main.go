package main

import (
	"context"
	"flag"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"ragdash/internal/config"
	"ragdash/internal/logger"
	"ragdash/internal/remote"
	"ragdash/internal/tui"
	"ragdash/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/ragdash/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var out io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := logger.OpenFile(cfg.Log.File)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
		out = f
	}
	lg := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out})

	client, err := remote.NewClient(remote.Config{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.Remote.Timeout(),
		Logger:  lg,
	})
	if err != nil {
		log.Fatalf("remote client init failed: %v", err)
	}

	store := workflow.New(client, workflow.WithLogger(lg), workflow.WithConfig(cfg.Pipeline))

	// in-flight remote calls are abandoned when the program exits
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := tui.New(ctx, store, client.Health)
	if path := flag.Arg(0); path != "" {
		m = m.WithPath(path)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	notify, stopRelay := tui.Relay(p.Send)
	defer stopRelay()
	store.Observe(notify)

	lg.Info("ragdash started", "remote", client.BaseURL(), "method", cfg.Pipeline.Method)
	if _, err := p.Run(); err != nil {
		lg.Error("program exited", "err", err)
		log.Fatal(err)
	}
}
