package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"enumguard/internal/schedule"
)

func newGateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gate",
		Short: "Show whether the scheduler gate is open now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			decision := schedule.NewGate(nil, ctx.log()).Evaluate(cfg.ScanStrategy)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Now:           %s\n", decision.At.Format("2006-01-02 15:04:05 Mon"))
			if !decision.Scheduled.IsZero() {
				fmt.Fprintf(out, "Scheduled:     %s (±%ds)\n", decision.Scheduled.Format("15:04"), cfg.ScanStrategy.Tolerance)
			}
			fmt.Fprintf(out, "Weekday check: %s\n", yesNo(decision.WeekdayPass))
			fmt.Fprintf(out, "Time check:    %s\n", yesNo(decision.TimePass))
			fmt.Fprintf(out, "Gate:          %s (%s)\n", openClosed(decision.Allowed()), decision.Reason)
			return nil
		},
	}
}

func openClosed(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}
