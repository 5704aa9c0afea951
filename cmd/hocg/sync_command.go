package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hocgassets/internal/artwork"
	"hocgassets/internal/config"
	"hocgassets/internal/logging"
	"hocgassets/internal/match"
	"hocgassets/internal/merge"
	"hocgassets/internal/model"
	"hocgassets/internal/overrides"
	"hocgassets/internal/reconcile"
	"hocgassets/internal/sources"
	"hocgassets/internal/sources/decklog"
	"hocgassets/internal/sources/holodelta"
	"hocgassets/internal/sources/official"
	"hocgassets/internal/sources/sheet"
	"hocgassets/internal/sources/yuyutei"
	"hocgassets/internal/store"
)

// Stage names accepted by --only.
const (
	stageDecklog   = "decklog"
	stageSheet     = "sheet"
	stageHolodelta = "holodelta"
	stageYuyutei   = "yuyutei"
	stageOfficial  = "official"
	stageArtwork   = "artwork"
	stageProxies   = "proxies"
)

var allStages = []string{stageDecklog, stageSheet, stageHolodelta, stageYuyutei, stageOfficial, stageArtwork, stageProxies}

type syncOptions struct {
	only          []string
	clean         bool
	dryRun        bool
	jsonOutput    bool
	expansion     string
	forceDownload bool
	warningsPath  string
}

type syncSummary struct {
	Database     string               `json:"database"`
	Saved        bool                 `json:"saved"`
	Stages       []string             `json:"stages"`
	SourceErrors []string             `json:"source_errors,omitempty"`
	Report       reconcile.Report     `json:"report"`
	Holodelta    *holodelta.Result    `json:"holodelta,omitempty"`
	Yuyutei      *yuyutei.Result      `json:"yuyutei,omitempty"`
	Official     *official.Result     `json:"official,omitempty"`
	Artwork      *artwork.Result      `json:"artwork,omitempty"`
	Proxies      *artwork.ProxyResult `json:"proxies,omitempty"`
	WarningsLog  string               `json:"warnings_log,omitempty"`
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch every enabled source and reconcile it into the card database",
		Long: `Fetch every enabled source and reconcile it into the card database.

Stages run in this order: decklog, sheet (collected into one batch and
reconciled), holodelta, yuyutei, official, artwork, proxies. --only replaces
the config toggles.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return runSync(cmd, cfg, logger, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "Run only these stages ("+strings.Join(allStages, ", ")+")")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "Start from an empty card database")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Reconcile without saving the card database")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the run summary as JSON")
	cmd.Flags().StringVar(&opts.expansion, "expansion", "", "Limit the deck-log search to one expansion code")
	cmd.Flags().BoolVar(&opts.forceDownload, "force-download", false, "Download artwork even when Last-Modified is unchanged")
	cmd.Flags().StringVar(&opts.warningsPath, "warnings", "", "Write warnings and errors to this JSON log (default: a timestamped file in logging.dir)")
	return cmd
}

func selectStages(cfg *config.Config, only []string) ([]string, error) {
	if len(only) == 0 {
		var stages []string
		enabled := map[string]bool{
			stageDecklog:   cfg.Decklog.Enabled,
			stageSheet:     cfg.Sheet.Enabled,
			stageHolodelta: cfg.Holodelta.Enabled,
			stageYuyutei:   cfg.Yuyutei.Enabled,
			stageOfficial:  cfg.Official.Enabled,
			stageArtwork:   cfg.Artwork.Enabled,
			stageProxies:   cfg.Proxies.Enabled,
		}
		for _, stage := range allStages {
			if enabled[stage] {
				stages = append(stages, stage)
			}
		}
		return stages, nil
	}
	selected := make(map[string]bool, len(only))
	for _, name := range only {
		name = strings.ToLower(strings.TrimSpace(name))
		if !slices.Contains(allStages, name) {
			return nil, fmt.Errorf("unknown stage %q (want %s)", name, strings.Join(allStages, ", "))
		}
		selected[name] = true
	}
	var stages []string
	for _, stage := range allStages {
		if selected[stage] {
			stages = append(stages, stage)
		}
	}
	return stages, nil
}

func warningsLogPath(cfg *config.Config, flag string) string {
	if path := strings.TrimSpace(flag); path != "" {
		return path
	}
	if cfg.Logging.Dir == "" {
		return ""
	}
	return filepath.Join(cfg.Logging.Dir, "hocg-warnings-"+time.Now().Format("20060102-150405")+".json")
}

func runSync(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, opts syncOptions) error {
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	stages, err := selectStages(cfg, opts.only)
	if err != nil {
		return err
	}
	summary := syncSummary{Database: cfg.Paths.Database, Stages: stages}

	if path := warningsLogPath(cfg, opts.warningsPath); path != "" {
		handler, closer, err := logging.NewWarningLog(path)
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = logging.TeeLogger(logger, handler)
		summary.WarningsLog = path
	}

	st, err := store.Open(store.Options{
		Path:     cfg.Paths.Database,
		LockPath: cfg.Paths.LockFile,
		Clean:    opts.clean,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	srcs := buildSources(cfg, logger, stages, opts)
	batch, fetchErr := sources.Collect(runCtx, logger, srcs...)
	if fetchErr != nil {
		if errors.Is(fetchErr, context.Canceled) || errors.Is(fetchErr, context.DeadlineExceeded) {
			return fetchErr
		}
		summary.SourceErrors = strings.Split(fetchErr.Error(), "\n")
	}

	engine := &reconcile.Engine{
		Store:      st,
		Merger:     merge.New(merge.LogSink{Logger: logger}),
		Overrides:  overrides.New(overrides.NewCatalog(cfg.Overrides.Path, logger), logger),
		Tolerances: tolerancesFrom(cfg),
		Workers:    cfg.Workers.Reconcile,
		Logger:     logger,
	}
	if !opts.dryRun {
		engine.ImageDirs = map[model.Language]string{
			model.Japanese: cfg.Paths.ImagesJP,
			model.English:  cfg.Paths.ImagesEN,
		}
	}
	report, err := engine.Run(runCtx, batch)
	summary.Report = report
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if slices.Contains(stages, stageHolodelta) {
		importer := &holodelta.Importer{
			Store:     st,
			ImagesDir: cfg.Paths.ImagesJP,
			Workers:   cfg.Workers.Reconcile,
			Logger:    logger,
		}
		res, err := importer.Run(runCtx, cfg.Holodelta.DBPath)
		if err != nil {
			return fmt.Errorf("holodelta: %w", err)
		}
		summary.Holodelta = &res
	}

	if slices.Contains(stages, stageYuyutei) {
		mode, err := yuyutei.ParseMode(cfg.Yuyutei.Mode)
		if err != nil {
			return err
		}
		pairer := &yuyutei.Pairer{
			Store:  st,
			Lister: yuyutei.FileLister{Path: cfg.Yuyutei.ListingsPath},
			Mode:   mode,
			Hasher: yuyutei.NewHTTPHasher(sources.ClientConfig{
				RequestsPerSecond: cfg.Artwork.RequestsPerSecond,
				TimeoutSeconds:    cfg.Artwork.TimeoutSeconds,
			}),
			Workers: cfg.Workers.Downloads,
			Logger:  logger,
		}
		res, err := pairer.Run(runCtx)
		if err != nil {
			return fmt.Errorf("yuyutei: %w", err)
		}
		summary.Yuyutei = &res
	}

	if slices.Contains(stages, stageOfficial) {
		recorder := &official.Recorder{
			Store:  st,
			Lister: official.FileLister{Path: cfg.Official.CreditsPath},
			Logger: logger,
		}
		res, err := recorder.Run(runCtx)
		if err != nil {
			return fmt.Errorf("official: %w", err)
		}
		summary.Official = &res
	}

	if slices.Contains(stages, stageArtwork) {
		downloader := artwork.New(st, artwork.Config{
			BaseURL:   cfg.Artwork.BaseURL,
			ImagesDir: cfg.Paths.ImagesJP,
			Force:     cfg.Artwork.Force || opts.forceDownload,
			Workers:   cfg.Workers.Downloads,
			Client: sources.ClientConfig{
				Referer:           cfg.Artwork.Referer,
				RequestsPerSecond: cfg.Artwork.RequestsPerSecond,
				TimeoutSeconds:    cfg.Artwork.TimeoutSeconds,
			},
		}, logger)
		res, err := downloader.Run(runCtx)
		if err != nil {
			return fmt.Errorf("artwork: %w", err)
		}
		summary.Artwork = &res
	}

	if slices.Contains(stages, stageProxies) && !opts.dryRun {
		res, err := artwork.PrepareProxies(runCtx, st, artwork.ProxyConfig{
			Dir:       cfg.Proxies.Dir,
			ImagesDir: cfg.Paths.ImagesEN,
		}, logger)
		if err != nil {
			return fmt.Errorf("proxies: %w", err)
		}
		summary.Proxies = &res
	}

	if !opts.dryRun {
		if err := st.Save(); err != nil {
			return err
		}
		summary.Saved = true
	}

	if opts.jsonOutput {
		return writeJSON(cmd, summary)
	}
	renderSyncSummary(cmd.OutOrStdout(), summary)
	return nil
}

func buildSources(cfg *config.Config, logger *slog.Logger, stages []string, opts syncOptions) []sources.Source {
	var srcs []sources.Source
	if slices.Contains(stages, stageDecklog) {
		expansion := cfg.Decklog.Expansion
		if strings.TrimSpace(opts.expansion) != "" {
			expansion = strings.TrimSpace(opts.expansion)
		}
		srcs = append(srcs, decklog.New(decklog.Config{
			BaseURL:           cfg.Decklog.BaseURL,
			Referer:           cfg.Decklog.Referer,
			Expansion:         expansion,
			OptimizedImages:   cfg.Decklog.OptimizedImages,
			RequestsPerSecond: cfg.Decklog.RequestsPerSecond,
			TimeoutSeconds:    cfg.Decklog.TimeoutSeconds,
		}, logger))
	}
	if slices.Contains(stages, stageSheet) {
		srcs = append(srcs, sheet.New(sheet.Config{
			Files:   cfg.Sheet.Files,
			Workers: cfg.Workers.Downloads,
		}, logger))
	}
	return srcs
}

func tolerancesFrom(cfg *config.Config) match.Tolerances {
	t := match.DefaultTolerances()
	t.SameRarity = cfg.Matching.SameRarity
	t.DiffRarity = cfg.Matching.DiffRarity
	if cfg.Matching.CoAssign > 0 {
		t.CoAssign = cfg.Matching.CoAssign
	}
	t.ProxyRarity = cfg.Matching.ProxyRarity
	t.TrustUnreleasedSameRarity = cfg.Matching.TrustUnreleasedSameRarity
	return t
}

func renderSyncSummary(out io.Writer, s syncSummary) {
	r := s.Report
	rows := [][]string{
		{"Cards", strconv.Itoa(r.Cards)},
		{"Bound", strconv.Itoa(r.Bound)},
		{"Matched", strconv.Itoa(r.Matched)},
		{"Created", strconv.Itoa(r.Created)},
		{"Unmatched", strconv.Itoa(r.Unmatched)},
		{"Merged", strconv.Itoa(r.Merged)},
		{"Skipped", strconv.Itoa(r.Skipped)},
		{"Failed", strconv.Itoa(r.Failed)},
		{"Warnings", strconv.Itoa(len(r.Warnings))},
		{"Overrides", strconv.Itoa(len(r.Overrides))},
	}
	if h := s.Holodelta; h != nil {
		rows = append(rows, []string{"holoDelta art assigned", fmt.Sprintf("%d of %d", h.Assigned, h.Arts)})
	}
	if y := s.Yuyutei; y != nil {
		rows = append(rows, []string{"Yuyutei urls", fmt.Sprintf("%d assigned, %d kept, %d unmatched", y.Assigned, y.Kept, len(y.Unmatched))})
	}
	if o := s.Official; o != nil {
		rows = append(rows, []string{"Illustrator credits", fmt.Sprintf("%d recorded, %d known, %d unmatched", o.Recorded, o.Known, len(o.Unmatched))})
	}
	if a := s.Artwork; a != nil {
		rows = append(rows, []string{"Artwork", fmt.Sprintf("%d downloaded, %d skipped, %d failed", a.Downloaded, a.Skipped, a.Failed)})
	}
	if p := s.Proxies; p != nil {
		rows = append(rows, []string{"Proxy images", fmt.Sprintf("%d copied, %d missing, %d failed", p.Copied, p.Missing, p.Failed)})
	}
	fmt.Fprintf(out, "Run %s (%s)\n", r.RunID, strings.Join(s.Stages, ", "))
	fmt.Fprintln(out, renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	for _, status := range []reconcile.Status{reconcile.StatusUnmatched, reconcile.StatusFailed} {
		for _, item := range r.ByStatus(status) {
			fmt.Fprintf(out, "  %s\n", item)
		}
	}
	for _, msg := range s.SourceErrors {
		fmt.Fprintf(out, "Source error: %s\n", msg)
	}
	switch {
	case s.Saved:
		fmt.Fprintf(out, "Saved %s\n", s.Database)
	default:
		fmt.Fprintln(out, "Dry run: card database not saved")
	}
	if s.WarningsLog != "" {
		fmt.Fprintf(out, "Warnings log: %s\n", s.WarningsLog)
	}
}
