package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ImaanAdrees/smartscribe/internal/api"
	"github.com/ImaanAdrees/smartscribe/internal/app"
	"github.com/ImaanAdrees/smartscribe/internal/credential"
	"github.com/ImaanAdrees/smartscribe/internal/inbox"
	"github.com/ImaanAdrees/smartscribe/internal/logging"
	"github.com/ImaanAdrees/smartscribe/internal/model"
	"github.com/ImaanAdrees/smartscribe/internal/realtime"
	"github.com/ImaanAdrees/smartscribe/internal/session"
	"github.com/ImaanAdrees/smartscribe/internal/store"
)

func main() {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The UI owns the terminal, so logs go to a file.
	log, err := logging.New(logging.DefaultPath())
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	log.Info("starting smartscribe",
		zap.String("backend_url", cfg.Backend.URL),
	)

	creds := credential.Store{}
	client := api.NewClient(cfg.Backend.URL, creds)

	// The offline cache is best effort; without it the app still works,
	// it just starts with an empty list until the first fetch.
	var cache store.Store
	sqlStore, err := store.NewSQLiteStore(model.DefaultCachePath())
	if err != nil {
		log.Warn("opening offline cache failed", zap.Error(err))
	} else {
		cache = sqlStore
		defer sqlStore.Close()
	}

	notifier := app.NewNotifier(cfg.Display.Sound)

	manager := realtime.NewManager(
		cfg.Backend.URL,
		realtime.PolicyFromConfig(cfg.Realtime),
		log,
	)

	ib := inbox.New(client, creds, cache, notifier, manager.Registry(), log)
	gate := session.New(manager, ib, cfg.Display.RefreshInterval(), log)

	program := tea.NewProgram(
		app.New(app.Deps{
			Client:   client,
			Creds:    creds,
			Gate:     gate,
			Inbox:    ib,
			Manager:  manager,
			Notifier: notifier,
			Logger:   log,
		}),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		log.Error("terminal program failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	gate.OnLoginStateChange(false, "")
	log.Info("smartscribe stopped")
}
