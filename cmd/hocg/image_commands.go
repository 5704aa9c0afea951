package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"hocgassets/internal/imagehash"
)

func newHashCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "hash <image>...",
		Short:       "Print the fingerprint of image files",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			type hashed struct {
				Path        string `json:"path"`
				Fingerprint string `json:"fingerprint"`
			}
			results := make([]hashed, 0, len(args))
			for _, path := range args {
				fp, err := imagehash.HashFile(path)
				if err != nil {
					return err
				}
				results = append(results, hashed{Path: path, Fingerprint: fp})
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			for _, r := range results {
				if len(results) == 1 {
					fmt.Fprintln(out, r.Fingerprint)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", r.Fingerprint, r.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDistanceCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "distance <a> <b>",
		Short: "Compare two fingerprints or image files",
		Long: `Compare two fingerprints or image files.

Each argument is read as an image file when one exists at that path and as a
fingerprint otherwise. Incomparable fingerprints report "incomparable".`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := fingerprintArg(args[0])
			if err != nil {
				return err
			}
			b, err := fingerprintArg(args[1])
			if err != nil {
				return err
			}
			d := imagehash.Distance(a, b)
			known := d != imagehash.MaxDistance
			if jsonOutput {
				payload := map[string]any{"a": a, "b": b, "comparable": known}
				if known {
					payload["distance"] = d
				}
				return writeJSON(cmd, payload)
			}
			if !known {
				fmt.Fprintln(cmd.OutOrStdout(), "incomparable")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), d)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func fingerprintArg(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return imagehash.HashFile(arg)
	}
	if !imagehash.Valid(arg) {
		return "", fmt.Errorf("%q is neither an image file nor a fingerprint", arg)
	}
	return arg, nil
}
