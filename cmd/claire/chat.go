package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandevgo/clairebot/internal/service/history"
	"github.com/sandevgo/clairebot/internal/service/memory"
	"github.com/sandevgo/clairebot/internal/service/scheduler"
	"github.com/sandevgo/clairebot/pkg/log"
)

var chatProfileUUID string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Run one conversation turn for a profile",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		input := strings.Join(args, " ")
		return runTurn(ctx, chatProfileUUID, input)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatProfileUUID, "profile", "p", "", "profile uuid (required)")
	_ = chatCmd.MarkFlagRequired("profile")
	rootCmd.AddCommand(chatCmd)
}

func runTurn(ctx context.Context, profileUUID, input string) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	p, err := rt.profiles.Get(ctx, profileUUID)
	if err != nil {
		return err
	}
	ps, err := rt.openProfile(ctx, p)
	if err != nil {
		return err
	}

	recent, err := ps.history.Window(ctx, history.Latest(), rt.memCfg.RecallWindow*2-1, 0)
	if err != nil {
		return fmt.Errorf("failed to load recent history: %w", err)
	}

	tc, err := ps.assembler.PrepareTurn(ctx, p.Name, input, recent)
	if err != nil {
		return err
	}

	output, err := rt.llm.Complete(ctx, renderChatPrompt(tc, input))
	if err != nil {
		return fmt.Errorf("model call failed: %w", err)
	}
	output = strings.TrimSpace(output)

	if err := ps.assembler.CommitTurn(ctx, tc, input, output, recent); err != nil {
		return err
	}

	planFollowUp(ctx, rt, ps, tc, input, output)

	fmt.Println(output)
	return nil
}

func renderChatPrompt(tc *memory.TurnContext, input string) string {
	var sb strings.Builder
	sb.WriteString("You are Claire, a thoughtful companion of " + tc.User + ". The current time is " + tc.DateTime + ".\n")
	if tc.Entities != "" {
		sb.WriteString("\nWhat you know about the people and things mentioned:\n" + tc.Entities + "\n")
	}
	if tc.Memory != "" {
		sb.WriteString("\nRelevant past conversation:\n" + tc.Memory + "\n")
	}
	if tc.History != "" {
		sb.WriteString("\nRecent conversation:\n" + tc.History + "\n")
	}
	sb.WriteString("\nHuman: " + input + "\nAI:")
	return sb.String()
}

// planFollowUp asks the model whether a future message would be natural and
// queues it if so. Failures here never fail the turn.
func planFollowUp(ctx context.Context, rt *runtime, ps *profileServices, tc *memory.TurnContext, input, output string) {
	logger := log.FromCtx(ctx)

	raw, err := rt.llm.Complete(ctx, renderFollowUpPrompt(tc, input, output))
	if err != nil {
		logger.Warn().Err(err).Msg("follow-up decision failed")
		return
	}
	followUp, err := scheduler.ParseFollowUp(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("could not parse follow-up decision")
		return
	}

	msg, err := scheduler.NewPlanner(ps.queue).Schedule(ctx, followUp)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to schedule follow-up")
		return
	}
	if msg != nil {
		logger.Info().Str("id", msg.ID).Int64("timestamp", msg.Timestamp).Msg("scheduled follow-up message")
	}
}

func renderFollowUpPrompt(tc *memory.TurnContext, input, output string) string {
	return fmt.Sprintf(
		`Take on the role of a friend of %s. Based on the conversation below, ending with your last message, decide whether it would be natural to send a follow-up message in the future, and if so, when. Choose to send follow-up messages sparingly; to send none, leave the message blank. The current time is %s.

%s
Human: %s
AI: %s

Answer with a JSON object: {"scheduledMessage": "message to send, or blank", "date": "MM/DD/YYYY", "time": "HH:MM"}`,
		tc.User, tc.DateTime, tc.History, input, output,
	)
}
