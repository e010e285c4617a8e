package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"enumguard/internal/config"
	"enumguard/internal/logging"
	"enumguard/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create and validate the configuration document",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration document",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := sampleTarget(targetPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(target); err == nil && !overwrite {
				return fmt.Errorf("%s already exists (use --overwrite to replace it)", target)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("check %s: %w", target, err)
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			if _, _, _, err := config.Load(target); err != nil {
				return fmt.Errorf("sample configuration does not load: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Review scan_strategy and monitored_devices, then schedule `enumguard run` or start `enumguard watch`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination (default: per-user config directory)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing document")
	return cmd
}

// sampleTarget resolves where config init writes. The sample is JSON, so the
// target must carry a .json extension for the loader to read it back.
func sampleTarget(flagValue string) (string, error) {
	flagValue = strings.TrimSpace(flagValue)
	if flagValue == "" {
		return config.DefaultConfigPath()
	}
	target, err := config.ExpandPath(flagValue)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", flagValue, err)
	}
	if !strings.EqualFold(filepath.Ext(target), ".json") {
		return "", fmt.Errorf("%s: the sample configuration is JSON; use a .json path", target)
	}
	return target, nil
}

// newConfigValidateCommand loads the document strictly (no safe-default
// fallback) and checks the files it points at.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration document and the files it references",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Document: %s\n", path)
			} else {
				fmt.Fprintf(out, "Document: %s (missing; defaults apply)\n", path)
			}
			for _, warning := range cfg.Warnings() {
				fmt.Fprintf(out, "Ignored: %s\n", warning)
			}

			results := preflight.CheckDocument(cfg, logging.NewNop())
			printResults(out, results)
			if !preflight.Passed(results) {
				return errors.New("configuration references unusable files")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
