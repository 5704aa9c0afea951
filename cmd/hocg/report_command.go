package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hocgassets/internal/model"
)

type setSummary struct {
	Set           string `json:"set"`
	Cards         int    `json:"cards"`
	Illustrations int    `json:"illustrations"`
	Unreleased    int    `json:"unreleased"`
}

type databaseSummary struct {
	Cards          int            `json:"cards"`
	Illustrations  int            `json:"illustrations"`
	Unreleased     int            `json:"unreleased"`
	MissingImage   int            `json:"missing_image"`
	MissingHash    int            `json:"missing_hash"`
	WithYuyutei    int            `json:"with_yuyutei_url"`
	WithDeltaIndex int            `json:"with_delta_art_index"`
	Types          map[string]int `json:"types"`
	Sets           []setSummary   `json:"sets"`
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var cardNumber string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the card database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.readDatabase()
			if err != nil {
				return err
			}
			if number := strings.TrimSpace(cardNumber); number != "" {
				card, ok := db[number]
				if !ok {
					return fmt.Errorf("card %s not found", number)
				}
				return writeJSON(cmd, card)
			}
			summary := summarizeDatabase(db)
			if jsonOutput {
				return writeJSON(cmd, summary)
			}
			renderDatabaseSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&cardNumber, "card", "", "Print one card as JSON")
	return cmd
}

func setOf(number string) string {
	if idx := strings.LastIndex(number, "-"); idx > 0 {
		return number[:idx]
	}
	return number
}

func summarizeDatabase(db model.Database) databaseSummary {
	summary := databaseSummary{Types: map[string]int{}}
	sets := map[string]*setSummary{}
	for _, number := range db.Numbers() {
		card := db[number]
		summary.Cards++
		kind := "unknown"
		if t, ok := card.CardType.Get(); ok {
			kind = t.String()
		}
		summary.Types[kind]++

		set := setOf(number)
		s, ok := sets[set]
		if !ok {
			s = &setSummary{Set: set}
			sets[set] = s
		}
		s.Cards++
		for _, illust := range card.Illustrations {
			summary.Illustrations++
			s.Illustrations++
			if !illust.Released() {
				summary.Unreleased++
				s.Unreleased++
			}
			if illust.ImgPath.Value(model.Japanese) == "" && illust.ImgPath.Value(model.English) == "" {
				summary.MissingImage++
			}
			if illust.ImgHash == "" {
				summary.MissingHash++
			}
			if illust.YuyuteiSellURL != "" {
				summary.WithYuyutei++
			}
			if illust.DeltaArtIndex != nil {
				summary.WithDeltaIndex++
			}
		}
	}
	for _, set := range slices.Sorted(maps.Keys(sets)) {
		summary.Sets = append(summary.Sets, *sets[set])
	}
	return summary
}

func renderDatabaseSummary(out io.Writer, s databaseSummary) {
	totals := [][]string{
		{"Cards", strconv.Itoa(s.Cards)},
		{"Illustrations", strconv.Itoa(s.Illustrations)},
		{"Unreleased", strconv.Itoa(s.Unreleased)},
		{"Missing image", strconv.Itoa(s.MissingImage)},
		{"Missing fingerprint", strconv.Itoa(s.MissingHash)},
		{"Yuyutei url", strconv.Itoa(s.WithYuyutei)},
		{"holoDelta art index", strconv.Itoa(s.WithDeltaIndex)},
	}
	fmt.Fprintln(out, renderTable([]string{"Database", "Count"}, totals, []columnAlignment{alignLeft, alignRight}))

	var types [][]string
	for _, kind := range slices.Sorted(maps.Keys(s.Types)) {
		types = append(types, []string{kind, strconv.Itoa(s.Types[kind])})
	}
	if len(types) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Type", "Cards"}, types, []columnAlignment{alignLeft, alignRight}))
	}

	var sets [][]string
	for _, set := range s.Sets {
		sets = append(sets, []string{set.Set, strconv.Itoa(set.Cards), strconv.Itoa(set.Illustrations), strconv.Itoa(set.Unreleased)})
	}
	if len(sets) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Set", "Cards", "Illustrations", "Unreleased"},
			sets,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		))
	}
}
