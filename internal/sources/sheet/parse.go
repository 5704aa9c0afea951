package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"hocgassets/internal/model"
)

// ErrNoHeader is returned when no row names the set code, image and rarity
// columns.
var ErrNoHeader = errors.New("sheet: header row not found")

// Image is one artwork cell with the rarity printed next to it.
type Image struct {
	URL    string
	Rarity string
}

// Row is one card line of a sheet export.
type Row struct {
	Line     int
	SetCode  string
	Name     string
	Type     string
	Color    string
	LifeHP   string
	Tags     string
	Text     string
	Language model.Language
	Images   []Image
}

type columns struct {
	setCode, name, typ, color, lifeHP, tags, text, language, source int
	image, alt, alt2                                                int
	rarity                                                          [3]int
}

func newColumns() columns {
	return columns{
		setCode: -1, name: -1, typ: -1, color: -1, lifeHP: -1, tags: -1, text: -1,
		language: -1, source: -1, image: -1, alt: -1, alt2: -1,
		rarity: [3]int{-1, -1, -1},
	}
}

func (c columns) complete() bool {
	return c.setCode >= 0 && c.image >= 0 && c.rarity[0] >= 0
}

// detect reads header labels. Rarity columns are numbered left to right and
// pair with the main image, then the first and second alternate art.
func detect(record []string) columns {
	c := newColumns()
	for idx, raw := range record {
		h := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case strings.Contains(h, "setcode") || strings.Contains(h, "set code"):
			c.setCode = idx
		case strings.Contains(h, "card name"):
			c.name = idx
		case strings.Contains(h, "alternate art"):
			if strings.Contains(h, "2") {
				c.alt2 = idx
			} else {
				c.alt = idx
			}
		case strings.Contains(h, "image"):
			c.image = idx
		case strings.Contains(h, "rarity"):
			for i := range c.rarity {
				if c.rarity[i] < 0 {
					c.rarity[i] = idx
					break
				}
			}
		case strings.Contains(h, "type"):
			c.typ = idx
		case strings.Contains(h, "color"):
			c.color = idx
		case strings.Contains(h, "life") || strings.Contains(h, "hp"):
			c.lifeHP = idx
		case strings.Contains(h, "tags"):
			c.tags = idx
		case strings.Contains(h, "text"):
			c.text = idx
		case strings.Contains(h, "language"):
			c.language = idx
		case strings.Contains(h, "source"):
			c.source = idx
		}
	}
	return c
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(record[idx], "\r\n", "\n"))
}

// Parse reads a CSV export. Rows above the header row and rows without a set
// code are ignored.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		cols   columns
		header bool
		rows   []Row
		line   int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sheet: read csv: %w", err)
		}
		line++
		if !header {
			if cols = detect(record); cols.complete() {
				header = true
			}
			continue
		}
		row, ok := parseRow(cols, record)
		if !ok {
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}
	if !header {
		return nil, ErrNoHeader
	}
	return rows, nil
}

func parseRow(cols columns, record []string) (Row, bool) {
	row := Row{
		SetCode: cell(record, cols.setCode),
		Name:    cell(record, cols.name),
		Type:    cell(record, cols.typ),
		Color:   cell(record, cols.color),
		LifeHP:  cell(record, cols.lifeHP),
		Tags:    cell(record, cols.tags),
		Text:    cell(record, cols.text),
	}
	if row.SetCode == "" || row.Name == "" {
		return Row{}, false
	}
	row.Language = rowLanguage(cell(record, cols.language), cell(record, cols.source), row.Text)

	add := func(imageCol, rarityCol int, cheerAlt bool) {
		url, rarity := cell(record, imageCol), cell(record, rarityCol)
		if url == "" || rarity == "" {
			return
		}
		// Cheer alternate arts are printed under a different number.
		if cheerAlt && rarity == "SY" {
			return
		}
		row.Images = append(row.Images, Image{URL: url, Rarity: rarity})
	}
	add(cols.image, cols.rarity[0], false)
	add(cols.alt, cols.rarity[1], true)
	add(cols.alt2, cols.rarity[2], true)
	return row, true
}

// rowLanguage picks the printing language of a row. An explicit language
// column wins; otherwise English exclusives are recognized from the source
// and text columns.
func rowLanguage(explicit, source, text string) model.Language {
	if explicit != "" {
		if lang, err := model.ParseLanguage(strings.ToLower(explicit)); err == nil {
			return lang
		}
	}
	switch {
	case strings.Contains(source, "(JP)"):
		return model.Japanese
	case strings.Contains(text, "EN exclusive"),
		strings.Contains(source, "EN only"),
		strings.Contains(source, "(EN)"):
		return model.English
	default:
		return model.Japanese
	}
}
