package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"enumguard/internal/journal"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show the failure journal for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			day := time.Now()
			if date != "" {
				day, err = time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
			}
			j := journal.New(cfg.FailureJournalPath(), nil, ctx.log())
			records, err := j.Read(day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No failures recorded for %s\n", day.Format("2006-01-02"))
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.Timestamp.Local().Format("15:04:05"),
					record.VIDPID,
					strconv.Itoa(record.Count),
					strconv.Itoa(record.Pass),
					string(record.Stage),
					yesNo(record.Permission),
					record.Error,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Time", "Identifier", "Count", "Pass", "Stage", "Permission", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD, default today)")
	return cmd
}
