package providers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

const (
	DefaultOneFootballBaseURL = "https://onefootball.com"
	DefaultNewsPathMarker     = "/noticias/"
	DefaultOneFootballSource  = "OneFootball"
)

// ListingExtractor reads article links from a listing page. Zero fields take
// the OneFootball defaults.
type ListingExtractor struct {
	BaseURL    string
	PathMarker string
	Source     string
}

// Extract returns one summary per distinct article id, in page order. The
// first anchor seen for an id wins; later anchors sharing it are dropped even
// when their titles differ.
func (e ListingExtractor) Extract(page []byte) ([]domain.ArticleSummary, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	source := valueOr(e.Source, DefaultOneFootballSource)
	selector := fmt.Sprintf("a[href*=%q]", valueOr(e.PathMarker, DefaultNewsPathMarker))

	out := make([]domain.ArticleSummary, 0)
	seen := make(map[string]struct{})

	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		title := collapseSpace(a.Text())
		if href == "" || title == "" {
			return
		}

		link := e.absolute(href)
		id := DeriveID(link)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		out = append(out, domain.ArticleSummary{
			Title:  title,
			Link:   link,
			Source: source,
			ID:     id,
		})
	})

	return out, nil
}

func (e ListingExtractor) absolute(href string) string {
	switch {
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	}
	base := strings.TrimRight(valueOr(e.BaseURL, DefaultOneFootballBaseURL), "/")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

// DeriveID returns the article identifier embedded in link: the text after the
// last '-' of the final path segment, ignoring query, fragment and trailing slashes.
func DeriveID(link string) string {
	s := link
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "-"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
