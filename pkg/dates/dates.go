// Package dates turns publication dates found in article markup into one
// canonical form: RFC 3339 in UTC.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Canonical is the layout every successfully parsed date is rendered in.
const Canonical = time.RFC3339

// minYear rejects loose parses that carry no real year.
const minYear = 1900

// ErrEmpty is returned by Parse for blank input.
var ErrEmpty = errors.New("empty date")

// layouts are tried before the loose parser. Zone-less layouts are read in
// the normalizer's location.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02.01.2006 15:04",
	"02.01.2006",
	time.RFC1123Z,
	time.RFC1123,
}

var ptMonths = map[string]string{
	"janeiro":   "January",
	"fevereiro": "February",
	"março":     "March",
	"marco":     "March",
	"abril":     "April",
	"maio":      "May",
	"junho":     "June",
	"julho":     "July",
	"agosto":    "August",
	"setembro":  "September",
	"outubro":   "October",
	"novembro":  "November",
	"dezembro":  "December",
}

// 12 de maio de 2024, 12 de maio de 2024 às 10:30, 12 de maio de 2024 10h30
var ptLongDate = regexp.MustCompile(`(?i)^(\d{1,2})\s+de\s+([a-zç]+)\s+de\s+(\d{4})(?:[\s,]+(?:às|as|-)?\s*(\d{1,2})[:h](\d{2}))?`)

// Normalizer parses loosely formatted dates. The zero value reads zone-less
// dates as UTC.
type Normalizer struct {
	loc *time.Location
}

// New returns a Normalizer that interprets zone-less input in loc.
func New(loc *time.Location) Normalizer {
	return Normalizer{loc: loc}
}

func (n Normalizer) location() *time.Location {
	if n.loc == nil {
		return time.UTC
	}
	return n.loc
}

// Normalize returns raw rendered in the canonical layout. Input that cannot be
// parsed comes back trimmed but otherwise untouched; blank input yields "".
func (n Normalizer) Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	t, err := n.Parse(s)
	if err != nil {
		return s
	}
	return t.UTC().Format(Canonical)
}

// Parse reads raw with the explicit layouts, then Portuguese long dates, then
// dateparse.
func (n Normalizer) Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	loc := n.location()

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, ok := parsePortuguese(s, loc); ok {
		return t, nil
	}
	if !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, fmt.Errorf("no date in %q", s)
	}
	// Numeric dates on these pages are day first, with or without a zone suffix.
	t, err := dateparse.ParseIn(s, loc, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, err
	}
	// Fragments like "12:" parse to year 0.
	if t.Year() < minYear {
		return time.Time{}, fmt.Errorf("no full date in %q", s)
	}
	return t, nil
}

func parsePortuguese(s string, loc *time.Location) (time.Time, bool) {
	m := ptLongDate.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := ptMonths[m[2]]
	if !ok {
		return time.Time{}, false
	}
	value := m[1] + " " + month + " " + m[3]
	layout := "2 January 2006"
	if m[4] != "" {
		value += " " + m[4] + ":" + m[5]
		layout += " 15:04"
	}
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
