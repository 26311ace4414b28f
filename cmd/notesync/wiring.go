package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/notesync/internal/credential"
	"github.com/nhle/notesync/internal/mailbox"
	"github.com/nhle/notesync/internal/notes"
	"github.com/nhle/notesync/internal/remote"
	"github.com/nhle/notesync/internal/store"
	appsync "github.com/nhle/notesync/internal/sync"
)

// openStore opens the note cache named in the config, creating its
// directory on first use.
func openStore() *store.SQLiteStore {
	path := cfg.Database.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fatal("Error creating database directory", err)
		}
	}

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		fatal("Error opening note cache", err)
	}
	return s
}

func newService(s store.Store) *notes.Service {
	return notes.NewService(s, cfg.Account.Profile, cfg.Account.DefaultFolder)
}

// newDialer builds the IMAP client for the configured account.
func newDialer() remote.Dialer {
	account := cfg.Account
	if account.Host == "" {
		fatal("Error", fmt.Errorf("account.host is not set in %s", cfgPath))
	}

	password, err := credential.Password(account.Login())
	if err != nil {
		fatal("Error reading password", err)
	}

	return mailbox.NewIMAPClient(
		account.Host, account.Port, account.Login(), password, account.TLS,
		slog.Default().With("component", "imap"),
	)
}

func syncOptions() []appsync.Option {
	return []appsync.Option{
		appsync.WithLogger(slog.Default()),
		appsync.WithFolderPattern(cfg.Account.FolderPattern),
		appsync.WithDefaultFolder(cfg.Account.DefaultFolder),
		appsync.WithTimeout(time.Duration(cfg.Sync.TimeoutSec) * time.Second),
	}
}

// newCoordinator wires the engine and resolver behind a started
// coordinator.
func newCoordinator(s store.Store, d remote.Dialer) *appsync.Coordinator {
	opts := syncOptions()
	engine := appsync.NewEngine(s, d, cfg.Account.Profile, opts...)
	resolver := appsync.NewResolver(s, d, cfg.Account.Profile, opts...)

	c := appsync.NewCoordinator(engine, resolver, d, opts...)
	c.Start()
	return c
}

// runTask submits one task, waits for its outcome and shuts the
// coordinator down.
func runTask(c *appsync.Coordinator, t appsync.Task) appsync.Outcome {
	c.Submit(t)
	c.Submit(appsync.EndTask())

	var result appsync.Outcome
	for o := range c.Outcomes() {
		if o.Kind != appsync.OutcomeEnd {
			result = o
		}
	}
	return result
}
