package main

import (
	"github.com/spf13/cobra"

	"github.com/sandevgo/clairebot/internal/service/history"
)

var (
	historyProfileUUID string
	historyAnchor      string
	historyBefore      int
	historyAfter       int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a window of a profile's chat history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.db.Close()

		p, err := rt.profiles.Get(ctx, historyProfileUUID)
		if err != nil {
			return err
		}
		ps, err := rt.openProfile(ctx, p)
		if err != nil {
			return err
		}

		anchor := history.Latest()
		if historyAnchor != "" {
			anchor = history.ByID(historyAnchor)
		}
		msgs, err := ps.history.Window(ctx, anchor, historyBefore, historyAfter)
		if err != nil {
			return err
		}

		printMessages(rt, msgs)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyProfileUUID, "profile", "p", "", "profile uuid (required)")
	_ = historyCmd.MarkFlagRequired("profile")
	historyCmd.Flags().StringVar(&historyAnchor, "anchor", "", "ledger id to center on (default: most recent)")
	historyCmd.Flags().IntVar(&historyBefore, "before", 9, "messages before the anchor")
	historyCmd.Flags().IntVar(&historyAfter, "after", 0, "messages after the anchor")
	rootCmd.AddCommand(historyCmd)
}
