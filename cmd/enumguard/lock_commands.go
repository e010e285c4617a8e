package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"enumguard/internal/deviceid"
	"enumguard/internal/lockset"
)

func newLockCommand(ctx *commandContext) *cobra.Command {
	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Manage identifiers that are never cleaned",
	}
	lockCmd.AddCommand(newLockAddCommand(ctx))
	lockCmd.AddCommand(newLockListCommand(ctx))
	return lockCmd
}

func newLockAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <identifier>",
		Short: "Permanently exempt an identifier from cleanup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			raw := strings.TrimSpace(args[0])
			if raw == "" {
				return errors.New("identifier is required")
			}
			registry, err := lockset.Load(cfg.LockListPath(), ctx.log())
			if err != nil {
				return err
			}
			added, err := registry.Add(raw)
			if err != nil {
				return err
			}
			id := deviceid.Normalize(raw)
			out := cmd.OutOrStdout()
			if !added {
				fmt.Fprintf(out, "%s is already locked\n", id)
				return nil
			}
			fmt.Fprintf(out, "Locked %s\n", id)
			if !id.Valid() {
				fmt.Fprintf(out, "Warning: %s is not an 8-character vendor/product identifier\n", id)
			}
			return nil
		},
	}
}

func newLockListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List locked identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := lockset.Load(cfg.LockListPath(), ctx.log())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if registry.Len() == 0 {
				fmt.Fprintln(out, "No locked identifiers")
				return nil
			}
			rows := make([][]string, 0, registry.Len())
			for _, id := range registry.IDs() {
				rows = append(rows, []string{id.String(), id.Vendor(), id.Product()})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Identifier", "Vendor", "Product"}, rows, nil))
			return nil
		},
	}
}
