package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"uuid-bench/bench"
	"uuid-bench/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored benchmark sessions",
	Long:  `List the sessions recorded in the result store, most recent first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Results.Store.Driver == "" {
			return fmt.Errorf("%w: results.store.driver is not set", bench.ErrConfiguration)
		}

		ctx := context.Background()
		s := store.NewStore(log, &cfg.Results.Store)
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("starting result store: %w", err)
		}
		defer func() { _ = s.Stop() }()

		sessions, err := s.ListSessions(ctx, historyLimit)
		if err != nil {
			return err
		}

		printHistory(cmd.OutOrStdout(), sessions)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum sessions to list (0 lists all)")
}

func printHistory(w io.Writer, sessions []store.SessionRecord) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded")
		return
	}

	for _, s := range sessions {
		fmt.Fprintf(w, "#%d  %s  %s  %s/%s  %d rows x %d runs  %.1fs\n",
			s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Engine,
			s.Profile, s.Strategy, s.InsertCount, s.RunCount, s.DurationMs/1000)
		for _, v := range s.Variants {
			fmt.Fprintf(w, "    %-20s frag %6.2f%%  insert %10.2fms  hit %8.2fms  miss %8.2fms\n",
				v.Name, v.Fragmentation, v.InsertMs, v.SelectSuccessMs, v.SelectFailMs)
		}
	}
}
