package ingest

import (
	"context"
	"io"
	"time"
)

// Article is a scraped news article before it enters the pipeline. Content
// may be empty when only the listing was scraped; the pipeline fetches the
// body on demand.
type Article struct {
	URL           string
	Title         string
	Excerpt       string
	Content       string
	PublishedDate string
	SourceName    string
}

// FetchedDocument is the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// Scraper collects article candidates from a configured source.
type Scraper interface {
	Scrape(ctx context.Context, source SourceConfig) ([]Article, error)
}

// ContentFetcher retrieves the full text of a single article. Scrapers that
// can resolve article bodies implement this in addition to Scraper.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Strategy selects the scraper used for a source.
type Strategy string

const (
	StrategyRSS        Strategy = "rss"        // RSS/Atom feeds
	StrategyTechCrunch Strategy = "techcrunch" // TechCrunch listing pages
	StrategyHTML       Strategy = "html"       // generic news sites
)
