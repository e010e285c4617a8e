package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"enumguard/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify configuration, privileges, and device tree access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Env{}, ctx.log())
			printResults(cmd.OutOrStdout(), results)
			if !preflight.Passed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}

func printResults(out io.Writer, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "ok"
		switch {
		case !result.Passed && result.Optional:
			status = "skip"
		case !result.Passed:
			status = "FAIL"
		}
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Check", "Status", "Detail"}, rows, nil))
}
