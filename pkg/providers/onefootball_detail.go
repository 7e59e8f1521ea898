package providers

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/dates"
)

// dateStrategy returns a raw publication date, or "" when its source is absent.
type dateStrategy func(doc *goquery.Document) string

// containerStrategy returns the article body container, or nil.
type containerStrategy func(doc *goquery.Document) *goquery.Selection

var dateStrategies = []dateStrategy{
	metaContent(`meta[property="article:published_time"]`),
	metaContent(`meta[itemprop="datePublished"]`),
	metaContent(`meta[name="date"], meta[name="publish-date"]`),
	timeElement,
	labelledDate(`[data-testid*="date"], [class~="date"], [class*="Date_"], [class*="-date"], [class*="_date"]`),
}

var containerStrategies = []containerStrategy{
	firstMatch(`[data-testid="article-body"]`),
	firstMatch("article"),
}

// Structural noise removed from the container before paragraphs are read.
const noiseSelector = `iframe, script, style, hr, aside, ` +
	`[class*="share"], [class*="Share"], [class^="ad-"], [class*=" ad-"], [class*="advert"], [class*="Advert"], ` +
	`[class*="comment"], [class*="Comment"], [class*="embed"], [class*="video"], [class*="Video"]`

const paragraphSelector = `[class*="articleParagraph"] p, [class*="ArticleParagraph"] p, [data-testid="article-paragraph"] p`

// Lowercase boilerplate phrases; a paragraph containing any of them is dropped.
var denylist = []string{
	"leia mais",
	"leia também",
	"veja também",
	"veja mais",
	"saiba mais",
	"compartilhe",
	"compartilhar",
	"siga-nos",
	"siga o onefootball",
	"comentários",
	"publicidade",
	"read more",
	"share this",
	"see also",
	"follow us",
	"comments",
	"advertisement",
	"🔗",
}

var bareURL = regexp.MustCompile(`^(https?://|www\.)\S+$`)

// DetailExtractor reads the body text and publication date of an article page.
type DetailExtractor struct {
	Dates dates.Normalizer
}

// Extract never fails on missing markup: a page without a recognizable body
// container yields an empty BodyText and whatever date could be found.
func (e DetailExtractor) Extract(page []byte) (domain.ArticleDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return domain.ArticleDetail{}, fmt.Errorf("parse article html: %w", err)
	}

	detail := domain.ArticleDetail{PublishedAt: e.Dates.Normalize(firstDate(doc))}

	container := firstContainer(doc)
	if container == nil {
		return detail, nil
	}
	detail.BodyText = strings.Join(paragraphs(container), "\n")
	return detail, nil
}

func firstDate(doc *goquery.Document) string {
	for _, strategy := range dateStrategies {
		if v := strings.TrimSpace(strategy(doc)); v != "" {
			return v
		}
	}
	return ""
}

func firstContainer(doc *goquery.Document) *goquery.Selection {
	for _, strategy := range containerStrategies {
		if sel := strategy(doc); sel != nil {
			return sel
		}
	}
	return nil
}

func paragraphs(container *goquery.Selection) []string {
	container.Find(noiseSelector).Remove()

	var out []string
	seen := make(map[string]struct{})
	container.Find(paragraphSelector).Each(func(_ int, p *goquery.Selection) {
		text := collapseSpace(p.Text())
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		if isBoilerplate(text) {
			return
		}
		out = append(out, text)
	})
	return out
}

func isBoilerplate(text string) bool {
	if bareURL.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, phrase := range denylist {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func metaContent(selector string) dateStrategy {
	return func(doc *goquery.Document) string {
		var v string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v = strings.TrimSpace(s.AttrOr("content", ""))
			return v == ""
		})
		return v
	}
}

func timeElement(doc *goquery.Document) string {
	var v string
	doc.Find("time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v = strings.TrimSpace(s.AttrOr("datetime", ""))
		if v == "" {
			v = collapseSpace(s.Text())
		}
		return v == ""
	})
	return v
}

// labelledDate reads short text from elements whose markup marks them as a date.
// Text without digits is a label ("Atualizado"), not a date.
func labelledDate(selector string) dateStrategy {
	const maxLen = 64
	return func(doc *goquery.Document) string {
		var v string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := collapseSpace(s.Text())
			if len(text) <= maxLen && strings.ContainsAny(text, "0123456789") {
				v = text
			}
			return v == ""
		})
		return v
	}
}

func firstMatch(selector string) containerStrategy {
	return func(doc *goquery.Document) *goquery.Selection {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return nil
		}
		return sel
	}
}
