package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"enumguard/internal/catalog"
	"enumguard/internal/deviceid"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage per-identifier cleanup thresholds",
	}
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogAddCommand(ctx))
	catalogCmd.AddCommand(newCatalogRemoveCommand(ctx))
	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List monitored identifiers and their thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat := catalog.FromConfig(cfg)
			out := cmd.OutOrStdout()
			if cat.Len() == 0 {
				fmt.Fprintf(out, "No monitored identifiers (global threshold %d, enrolled at %d)\n", cfg.Threshold, cat.DefaultThreshold())
				return nil
			}
			rows := make([][]string, 0, cat.Len())
			for _, entry := range cat.Entries() {
				rows = append(rows, []string{entry.ID.String(), strconv.Itoa(entry.Threshold)})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Identifier", "Threshold"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Global threshold: %d\nEnrollment threshold: %d\n", cfg.Threshold, cat.DefaultThreshold())
			return nil
		},
	}
}

func newCatalogAddCommand(ctx *commandContext) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "add <identifier>",
		Short: "Add or update a monitored identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.requireWritable()
			if err != nil {
				return err
			}
			id := deviceid.Normalize(args[0])
			if id == "" {
				return errors.New("identifier is required")
			}
			cat := catalog.FromConfig(cfg)
			if threshold == 0 {
				threshold = cat.DefaultThreshold()
			}
			if err := cat.Put(id, threshold); err != nil {
				return err
			}
			if err := cat.SaveTo(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s with threshold %d\n", id, threshold)
			return nil
		},
	}

	cmd.Flags().IntVar(&threshold, "threshold", 0, "Cleanup threshold (default: default_notify_threshold)")
	return cmd
}

func newCatalogRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <identifier>",
		Short: "Stop monitoring an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.requireWritable()
			if err != nil {
				return err
			}
			id := deviceid.Normalize(args[0])
			cat := catalog.FromConfig(cfg)
			if !cat.Remove(id) {
				return fmt.Errorf("%s is not monitored", id)
			}
			if err := cat.SaveTo(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			return nil
		},
	}
}
