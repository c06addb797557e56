package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hvaldez/taskmovil/internal/alert"
	"github.com/hvaldez/taskmovil/internal/api"
	"github.com/hvaldez/taskmovil/internal/app"
	"github.com/hvaldez/taskmovil/internal/logging"
	"github.com/hvaldez/taskmovil/internal/model"
	"github.com/hvaldez/taskmovil/internal/notify"
	"github.com/hvaldez/taskmovil/internal/push"
	"github.com/hvaldez/taskmovil/internal/session"
	"github.com/hvaldez/taskmovil/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "taskmovil:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	// First run: write the effective defaults so the user has a file
	// to edit.
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		if err := model.SaveConfig(*configPath, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "taskmovil: writing default config:", err)
		}
	}

	log, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	credStore := session.NewKeyringStore()

	client := api.NewClient(
		cfg.Server.BaseURL,
		time.Duration(cfg.Server.TimeoutSec)*time.Second,
		log,
	)

	mgr := session.NewManager(credStore, client, log)
	client.BindSession(mgr)

	scheduler := alert.NewLocalScheduler(nil, log)
	engine := notify.New(
		client,
		scheduler,
		time.Duration(cfg.Sync.PollIntervalSec)*time.Second,
		log,
	)
	defer engine.Shutdown()

	// Starting or stopping the poll loop follows the session state.
	mgr.Subscribe(engine.SetAuthenticated)

	if mgr.Restore() {
		log.Info("session restored from keyring")
	}

	cache, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening task cache: %w", err)
	}
	defer cache.Close()

	registrar := push.NewRegistrar(client, credStore, log)

	root := app.New(app.Deps{
		Session:   mgr,
		Engine:    engine,
		Client:    client,
		Cache:     cache,
		Registrar: registrar,
		Log:       log,
	})

	program := tea.NewProgram(
		root,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	return nil
}
