// Package main runs a hot-seat skirmish in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/korodan/internal/config"
	"github.com/cory-johannsen/korodan/internal/console"
	"github.com/cory-johannsen/korodan/internal/lifecycle"
	"github.com/cory-johannsen/korodan/internal/match"
	"github.com/cory-johannsen/korodan/internal/observability"
	"github.com/cory-johannsen/korodan/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses built-in defaults")
	noColor := flag.Bool("no-color", false, "disable ANSI colors")
	history := flag.Bool("history", false, "record the match in the history database")
	recent := flag.Int("recent", 0, "list the N most recent recorded matches and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *history {
		cfg.History.Enabled = true
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	lc := lifecycle.New(logger)

	var repo *postgres.MatchRepository
	if cfg.History.Enabled || *recent > 0 {
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("connecting to history database", zap.Error(err))
		}
		repo = postgres.NewMatchRepository(pool.DB())
		if *recent > 0 {
			err := listRecent(ctx, repo, *recent)
			pool.Close()
			if err != nil {
				logger.Fatal("listing matches", zap.Error(err))
			}
			return
		}
		lc.Add("history-db", lifecycle.Idle(pool.Close))
	}

	m, err := match.New(cfg, logger)
	if err != nil {
		logger.Fatal("setting up match", zap.Error(err))
	}
	lc.Add("match", lifecycle.Idle(m.Close))

	if repo != nil {
		rec := match.NewRecorder(m, repo)
		lc.Add("recorder", lifecycle.Idle(rec.Stop))
	}

	host := console.NewHost(m, !*noColor)
	lc.Add("console", &lifecycle.FuncService{
		StartFn: func(ctx context.Context) error {
			return host.Run(ctx, os.Stdin, os.Stdout)
		},
		// Runs before the match closes its scripting state.
		StopFn: host.Stop,
	})

	logger.Info("skirmish ready",
		zap.String("match_id", m.ID.String()),
		zap.String("mode", cfg.Game.Mode),
		zap.Bool("history", repo != nil),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := lc.Run(ctx); err != nil {
		logger.Fatal("skirmish", zap.Error(err))
	}
}

func listRecent(ctx context.Context, repo *postgres.MatchRepository, limit int) error {
	matches, err := repo.RecentMatches(ctx, limit)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("no recorded matches")
		return nil
	}
	for _, m := range matches {
		winner := m.Winner
		if winner == "" {
			winner = "none"
		}
		fmt.Printf("%s  %-11s %-10s winner=%-5s rounds=%-3d %s\n",
			m.ID, m.Mode, m.WallMap, winner, m.Rounds, m.EndedAt.Format(time.RFC3339))
	}
	return nil
}
