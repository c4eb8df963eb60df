package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltrail/internal/config"
	"github.com/abhisek/skilltrail/internal/goalchat"
	"github.com/abhisek/skilltrail/internal/goals"
	"github.com/abhisek/skilltrail/internal/knowledge"
	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/settings"
	"github.com/abhisek/skilltrail/internal/store"
	"github.com/abhisek/skilltrail/internal/videos"
)

// app holds the opened store and the services built on it.
type app struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store

	settings  *settings.Service
	goals     *goals.Service
	chat      *goalchat.Service
	videos    *videos.Service
	knowledge *knowledge.Service
}

// openApp loads configuration, opens the store, and builds dependencies.
// Callers must Close the result.
func openApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if m, _ := cmd.Flags().GetString("log-mode"); m != "" {
		cfg.Log.Mode = m
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{cfg: cfg, log: log, store: st}
	a.settings = settings.NewService(st, cfg.LLMConfig(), log)
	a.goals = goals.NewService(st, log)
	a.chat = goalchat.NewService(st, a.goals, a.settings, goalchat.DefaultConfig(), log)

	vc := videos.DefaultConfig()
	if cfg.Videos.OverlapConcurrency > 0 {
		vc.OverlapConcurrency = cfg.Videos.OverlapConcurrency
	}
	if cfg.Videos.TranscriptLimit > 0 {
		vc.TranscriptLimit = cfg.Videos.TranscriptLimit
	}
	a.videos = videos.NewService(st, a.settings, vc, log)

	kc := knowledge.DefaultConfig()
	if cfg.Knowledge.Concurrency > 0 {
		kc.Concurrency = cfg.Knowledge.Concurrency
	}
	a.knowledge = knowledge.NewService(st, a.settings, kc, log)
	return a, nil
}

func (a *app) Close() {
	a.log.Sync()
	if err := a.store.Close(); err != nil {
		a.log.Warn("close database", "error", err)
	}
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file or SKILLTRAIL_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, store.EnsureDir(cfg.Database.Path)
	}
	return store.DefaultDBPath()
}

// withApp adapts a command body that needs the opened app.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
