package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hocgassets/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var network bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, inputs and remote sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Network: network})
			failed := preflight.Failed(results)

			if jsonOutput {
				payload := map[string]any{
					"config":        ctx.configPath,
					"config_exists": ctx.configSeen,
					"checks":        results,
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Configuration", colorize) {
					fmt.Fprintln(out, line)
				}
				configDetail := ctx.configPath
				if !ctx.configSeen {
					configDetail += " (not found, defaults used)"
				}
				fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, configDetail, colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, cfg.Paths.Database, colorize))
				fmt.Fprintln(out, renderStatusLine("Reconcile workers", statusInfo, strconv.Itoa(cfg.Workers.Reconcile), colorize))
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Checks", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if len(failed) > 0 {
				return errors.New(strconv.Itoa(len(failed)) + " check(s) failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&network, "network", false, "Also check that the remote sites answer")
	return cmd
}
