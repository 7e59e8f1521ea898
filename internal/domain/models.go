package domain

// Domain contains core models shared by the extraction pipeline and its callers.

// ArticleSummary is one article link found on a listing page.
// ID is derived from Link and is the deduplication key.
type ArticleSummary struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Source string `json:"source"`
	ID     string `json:"article_id"`
}

// ArticleDetail is what could be extracted from an article page. Either field may be empty.
type ArticleDetail struct {
	BodyText    string `json:"body_text"`
	PublishedAt string `json:"published_at"`
}

// NewsRecord is a new article enriched with its detail fields.
type NewsRecord struct {
	ArticleSummary
	ArticleDetail
}

// NewRecord merges a summary with its detail.
func NewRecord(s ArticleSummary, d ArticleDetail) NewsRecord {
	return NewsRecord{ArticleSummary: s, ArticleDetail: d}
}

// IDs returns the identifiers of summaries in order.
func IDs(summaries []ArticleSummary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.ID)
	}
	return out
}
