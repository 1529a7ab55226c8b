package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gameboard/internal/adapters/repository"
	service "github.com/okian/gameboard/internal/app"
	"github.com/okian/gameboard/internal/config"
	"github.com/okian/gameboard/internal/domain/scoring"
	"github.com/okian/gameboard/pkg/logger"
)

const defaultDBPath = "gameboard.db"

// options are the flags shared by every subcommand.
type options struct {
	dbPath  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "gameboardctl",
		Short:         "Gameboard statistics tool",
		Long:          "Seed a gameboard SQLite database and print statistics, trophies, bracket scores and player profiles.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(cmd.ErrOrStderr(), "text"); err != nil {
				return err
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to SQLite database (default from GAMEBOARD_DB_PATH or "+defaultDBPath+")")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newSeedCmd(opts),
		newStatCmd(opts),
		newTrophiesCmd(opts),
		newBracketCmd(opts),
		newProfileCmd(opts),
	)
	return root
}

// session is an opened store with a service over it.
type session struct {
	store repository.Store
	svc   *service.Service
}

func (s *session) Close() error { return s.store.Close() }

// open loads the configuration, opens the database and builds a service
// that answers reads synchronously.
func (o *options) open(ctx context.Context) (*session, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	path := o.dbPath
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		path = defaultDBPath
	}

	table, err := scoring.ParseScoreTable(cfg.ScoreTable)
	if err != nil {
		return nil, fmt.Errorf("score_table: %w", err)
	}

	store, err := repository.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	svc := service.New(store,
		service.WithLogger(logger.Get().Named("gameboardctl")),
		service.WithHeavyGames(cfg.HeavyGames),
		service.WithScoreTable(table),
		service.WithTrophyCacheTTL(time.Minute),
		service.WithMaxStatisticEntries(cfg.MaxStatisticEntries),
	)
	return &session{store: store, svc: svc}, nil
}
