package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/config"
	"github.com/tanmay/quizdeck/internal/delivery"
	"github.com/tanmay/quizdeck/internal/history"
	"github.com/tanmay/quizdeck/internal/identity"
	"github.com/tanmay/quizdeck/internal/logging"
	"github.com/tanmay/quizdeck/internal/screens/home"
	"github.com/tanmay/quizdeck/internal/store"
)

// buildDeps loads configuration and constructs every service the screens
// need. The local store is best-effort: when it cannot be opened the client
// still runs, without caching or offline fallbacks.
func buildDeps(cmd *cobra.Command) (home.Deps, func(), error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return home.Deps{}, nil, err
	}

	log, closeLog, err := logging.Open(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return home.Deps{}, nil, fmt.Errorf("open log: %w", err)
	}

	st := openStore(cfg)
	var (
		idCache  store.IdentityCache
		attempts store.AttemptRepo
		sessions store.SessionLog
	)
	if st != nil {
		idCache = st.IdentityCache()
		attempts = st.Attempts()
		sessions = st.Sessions()
	} else {
		log.Warn().Msg("local store unavailable, running without offline data")
	}

	client := api.New(cfg.ServerURL, cfg.HTTPTimeout, log)

	deps := home.Deps{
		Cfg:       cfg,
		Backend:   client,
		Questions: delivery.NewQuestionClient(client, log),
		Pipeline:  delivery.NewPipeline(client, attempts, log),
		Sessions:  sessions,
		Resolver:  identity.NewResolver(client, idCache, log),
		History:   history.NewService(client, true, log),
		Log:       log,
	}

	cleanup := func() {
		if st != nil {
			st.Close()
		}
		closeLog()
	}
	return deps, cleanup, nil
}

func openStore(cfg *config.Config) *store.Store {
	path := cfg.DBPath
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "resolve database path:", err)
			return nil
		}
	} else if err := store.EnsureDir(path); err != nil {
		fmt.Fprintln(os.Stderr, "create database directory:", err)
		return nil
	}

	st, err := store.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open local store:", err)
		return nil
	}
	return st
}
