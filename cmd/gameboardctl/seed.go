package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/gameboard/internal/seed"
)

func newSeedCmd(opts *options) *cobra.Command {
	cfg := seed.DefaultConfig()
	var seedValue int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with generated groups, rounds and tournaments",
		Long: `Generate a reproducible demo dataset and store it. The same --seed
always produces the same players, rounds and tournaments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			gen := seed.NewGenerator(seedValue)
			d, err := gen.Generate(cfg)
			if err != nil {
				return err
			}

			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			sum, err := seed.Load(ctx, s.store, d)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seed %d: %d groups, %d players, %d games, %d rounds, %d tournaments\n",
				gen.Seed(), sum.Groups, sum.Players, sum.Games, sum.Rounds, sum.Tournaments)
			for _, g := range d.Groups {
				fmt.Fprintf(out, "  group %s  %s\n", g.ID, g.Name)
			}
			for _, t := range d.Tournaments {
				fmt.Fprintf(out, "  tournament %s  %s\n", t.ID, t.Name)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Int64Var(&seedValue, "seed", 0, "random seed (0 picks one)")
	f.IntVar(&cfg.Groups, "groups", cfg.Groups, "number of groups")
	f.IntVar(&cfg.PlayersPerGroup, "players", cfg.PlayersPerGroup, "players per group")
	f.IntVar(&cfg.Games, "games", cfg.Games, "number of games")
	f.IntVar(&cfg.RoundsPerGroup, "rounds", cfg.RoundsPerGroup, "rounds per group")
	f.IntVar(&cfg.Tournaments, "tournaments", cfg.Tournaments, "number of tournaments")
	f.DurationVar(&cfg.History, "history", cfg.History, "how far back round dates reach")
	return cmd
}
