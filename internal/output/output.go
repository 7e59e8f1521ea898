// Package output renders harvested records for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

const (
	FormatJSON  = "json"
	FormatTable = "table"

	// DefaultTitleWidth caps the title column in table output, in display cells.
	DefaultTitleWidth = 60
)

// Result is the JSON document printed by the scrape command.
type Result struct {
	NewArticles []domain.NewsRecord `json:"novas_noticias"`
}

// Write renders records in the requested format.
func Write(w io.Writer, format string, records []domain.NewsRecord) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return WriteJSON(w, records)
	case FormatTable:
		return WriteTable(w, records, DefaultTitleWidth)
	default:
		return fmt.Errorf("unsupported output format %q (want %q or %q)", format, FormatJSON, FormatTable)
	}
}

// WriteJSON prints {"novas_noticias": [...]}. A nil slice is printed as [].
func WriteJSON(w io.Writer, records []domain.NewsRecord) error {
	if records == nil {
		records = []domain.NewsRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(Result{NewArticles: records})
}

// WriteTable prints a markdown table padded by display width, so accented and
// wide characters line up. Titles wider than titleWidth cells are truncated.
func WriteTable(w io.Writer, records []domain.NewsRecord, titleWidth int) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"ID", "Published", "Title", "Link"})
	for _, rec := range records {
		title := cell(rec.Title)
		if titleWidth > 0 {
			title = runewidth.Truncate(title, titleWidth, "…")
		}
		rows = append(rows, []string{cell(rec.ID), valueOrDash(rec.PublishedAt), title, cell(rec.Link)})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, c := range row {
			if n := runewidth.StringWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	var sb strings.Builder
	for i, row := range rows {
		writeRow(&sb, row, widths)
		if i == 0 {
			sep := make([]string, len(widths))
			for j, n := range widths {
				sep[j] = strings.Repeat("-", n)
			}
			writeRow(&sb, sep, widths)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeRow(sb *strings.Builder, row []string, widths []int) {
	sb.WriteString("|")
	for i, c := range row {
		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(c, widths[i]))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

// cell flattens a value onto one line and escapes the column separator.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func valueOrDash(s string) string {
	if s = cell(s); s == "" {
		return "-"
	}
	return s
}
