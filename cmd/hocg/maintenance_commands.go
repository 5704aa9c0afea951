package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hocgassets/internal/artwork"
	"hocgassets/internal/model"
)

func newGCCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOutput bool
	var langs []string

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete image files no illustration references",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore(false)
			if err != nil {
				return err
			}
			defer st.Close()
			db := st.Snapshot()

			type langSweep struct {
				Language model.Language `json:"lang"`
				Dir      string         `json:"dir"`
				Files    []string       `json:"files"`
				Dirs     []string       `json:"dirs,omitempty"`
			}
			var sweeps []langSweep
			for _, value := range langs {
				lang, err := parseLanguage(value)
				if err != nil {
					return err
				}
				dir := cfg.ImageDir(string(lang))
				sweep, err := artwork.Collect(db, lang, dir, dryRun)
				if err != nil {
					return err
				}
				sweeps = append(sweeps, langSweep{Language: lang, Dir: dir, Files: sweep.Files, Dirs: sweep.Dirs})
			}

			if jsonOutput {
				return writeJSON(cmd, sweeps)
			}
			out := cmd.OutOrStdout()
			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			for _, s := range sweeps {
				for _, file := range s.Files {
					fmt.Fprintf(out, "%s %s\n", verb, file)
				}
				fmt.Fprintf(out, "%s: %s %d files, %d empty directories\n", s.Dir, verb, len(s.Files), len(s.Dirs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List files without deleting them")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringSliceVar(&langs, "lang", []string{"jp", "en"}, "Image trees to clean (jp, en)")
	return cmd
}

func newZipCommand(ctx *commandContext) *cobra.Command {
	var name string
	var lang string

	cmd := &cobra.Command{
		Use:   "zip",
		Short: "Pack an image tree into a zip archive in the assets directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			parsed, err := parseLanguage(lang)
			if err != nil {
				return err
			}
			archiveName := name
			if archiveName == "" {
				archiveName = "hocg-images-" + string(parsed)
			}
			path, err := artwork.Zip(archiveName, cfg.Paths.AssetsDir, cfg.ImageDir(string(parsed)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Archive name without extension (default hocg-images-<lang>)")
	cmd.Flags().StringVar(&lang, "lang", "jp", "Image tree to pack (jp or en)")
	return cmd
}
