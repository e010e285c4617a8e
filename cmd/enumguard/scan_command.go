package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"enumguard/internal/catalog"
	"enumguard/internal/census"
	"enumguard/internal/devicetree"
	"enumguard/internal/lockset"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var minimum int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print the current device census, highest count first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()
			tree, err := devicetree.Open(logger)
			if err != nil {
				return fmt.Errorf("open device tree: %w", err)
			}
			locks, err := lockset.Load(cfg.LockListPath(), logger)
			if err != nil {
				return err
			}
			snapshot, err := census.New(tree, locks, logger).Scan(cmd.Context(), minimum)
			if err != nil {
				return err
			}

			cat := catalog.FromConfig(cfg)
			rows := make([][]string, 0, len(snapshot))
			for _, item := range snapshot.Sorted() {
				threshold, source, over := cfg.Threshold, "global", item.Count >= cfg.Threshold
				if entry, ok := cat.Lookup(item.ID); ok {
					threshold, source, over = entry.Threshold, "catalog", item.Count > entry.Threshold
				}
				rows = append(rows, []string{
					item.ID.String(),
					strconv.Itoa(item.Count),
					strconv.Itoa(threshold),
					source,
					yesNo(over),
				})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No identifiers to report")
				return nil
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Identifier", "Count", "Threshold", "Source", "Over"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			if locks.Len() > 0 {
				fmt.Fprintf(out, "%d locked identifiers hidden\n", locks.Len())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&minimum, "min", 0, "Only show identifiers with at least this many instances")
	return cmd
}
