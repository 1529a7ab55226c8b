package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/gameboard/internal/report"
)

func newStatCmd(opts *options) *cobra.Command {
	var selector string
	cmd := &cobra.Command{
		Use:   "stat <group-id> <kind>",
		Short: "Print one statistic of a group",
		Long: `Print the leaderboard and trophies of a statistic. kind is wins,
percentage, heavy, unique or the name of a game.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.svc.Statistic(cmd.Context(), args[0], args[1], selector)
			if err != nil {
				return err
			}
			return report.PrintStatistic(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&selector, "window", "w", "all", `window: "all", "recent" or a year`)
	return cmd
}

func newTrophiesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trophies <group-id>",
		Short: "Print the trophy board of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			board, err := s.svc.Trophies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.PrintTrophyBoard(cmd.OutOrStdout(), board)
		},
	}
}

func newBracketCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bracket <tournament-id>",
		Short: "Print the team totals of a tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.svc.BracketScores(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.PrintBracket(cmd.OutOrStdout(), res)
		},
	}
}

func newProfileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <player-id>",
		Short: "Print a player's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.svc.PlayerProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.PrintProfile(cmd.OutOrStdout(), p)
		},
	}
}
