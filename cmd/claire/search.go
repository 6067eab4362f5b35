package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandevgo/clairebot/internal/core"
)

var (
	searchProfileUUID string
	searchSemantic    bool
	searchLimit       int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a profile's chat history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.db.Close()

		p, err := rt.profiles.Get(ctx, searchProfileUUID)
		if err != nil {
			return err
		}
		ps, err := rt.openProfile(ctx, p)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		var msgs []core.Message
		if searchSemantic {
			msgs, err = ps.history.SearchSemantic(ctx, query, searchLimit)
		} else {
			msgs, err = ps.history.SearchExact(ctx, query, searchLimit)
		}
		if err != nil {
			return err
		}

		printMessages(rt, msgs)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchProfileUUID, "profile", "p", "", "profile uuid (required)")
	_ = searchCmd.MarkFlagRequired("profile")
	searchCmd.Flags().BoolVar(&searchSemantic, "semantic", false, "nearest-neighbor search instead of exact substring")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results")
	rootCmd.AddCommand(searchCmd)
}

func printMessages(rt *runtime, msgs []core.Message) {
	for _, m := range msgs {
		prefix := rt.memCfg.AIPrefix
		if m.IsUser {
			prefix = rt.memCfg.HumanPrefix
		}
		fmt.Printf("[%s] %s: %s\n", m.ID, prefix, m.Text)
	}
}
