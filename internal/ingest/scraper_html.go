package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// commonContainerSelectors are tried in order when a source does not
// configure its own container selector.
var commonContainerSelectors = []string{
	"article", ".article", ".post", ".news-item", ".story",
}

var commonTitleSelectors = []string{"h1", "h2", "h3", ".title", "a"}

// HTMLScraper handles news sites without a feed or dedicated scraper. It
// walks a listing page with configured (or common fallback) CSS selectors
// and keeps only funding-related climate items.
type HTMLScraper struct {
	Fetcher Fetcher
}

func NewHTMLScraper(fetcher Fetcher) *HTMLScraper {
	if fetcher == nil {
		fetcher = NewPageFetcher(FetchConfig{})
	}
	return &HTMLScraper{Fetcher: fetcher}
}

func (s *HTMLScraper) Scrape(ctx context.Context, source SourceConfig) ([]Article, error) {
	doc, err := s.Fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("listing fetch failed: %w", err)
	}
	defer doc.Body.Close()

	page, err := goquery.NewDocumentFromReader(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	containers := s.findContainers(page, source.Selectors.Container)

	base := source.URL
	if u, err := url.Parse(source.URL); err == nil {
		base = u.Scheme + "://" + u.Host
	}

	var articles []Article
	containers.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if article, ok := s.extractArticle(el, source, base); ok {
			articles = append(articles, article)
		}
		max := source.MaxArticles
		if max <= 0 {
			max = 10
		}
		return len(articles) < max
	})

	return articles, nil
}

// findContainers tries the configured selector first, then the common
// news-site patterns, keeping the first selector that matches more than a
// few elements.
func (s *HTMLScraper) findContainers(page *goquery.Document, configured string) *goquery.Selection {
	if configured != "" {
		return page.Find(configured)
	}
	for _, sel := range commonContainerSelectors {
		if found := page.Find(sel); found.Length() > 3 {
			return found
		}
	}
	return page.Find(commonContainerSelectors[0])
}

func (s *HTMLScraper) extractArticle(el *goquery.Selection, source SourceConfig, base string) (Article, bool) {
	sel := source.Selectors

	title := ""
	var titleEl *goquery.Selection
	titleSelectors := commonTitleSelectors
	if sel.Title != "" {
		titleSelectors = []string{sel.Title}
	}
	for _, ts := range titleSelectors {
		found := el.Find(ts).First()
		if found.Length() == 0 {
			continue
		}
		if text := normalizeSpace(found.Text()); len(text) > 10 {
			title = text
			titleEl = found
			break
		}
	}
	if title == "" {
		return Article{}, false
	}

	link := ""
	if sel.Link != "" {
		link, _ = el.Find(sel.Link).First().Attr("href")
	}
	if link == "" && titleEl != nil {
		if titleEl.Is("a") {
			link, _ = titleEl.Attr("href")
		} else {
			link, _ = titleEl.Find("a").First().Attr("href")
		}
	}
	if link == "" {
		link, _ = el.Find("a[href]").First().Attr("href")
	}
	if link == "" {
		return Article{}, false
	}
	link = absoluteURL(base, link)

	dateSel := sel.Date
	if dateSel == "" {
		dateSel = "time"
	}
	date := ""
	if dateEl := el.Find(dateSel).First(); dateEl.Length() > 0 {
		if dt, ok := dateEl.Attr("datetime"); ok {
			date = dt
		} else {
			date = normalizeSpace(dateEl.Text())
		}
	}

	excerptSel := sel.Excerpt
	if excerptSel == "" {
		excerptSel = "p"
	}
	excerpt := ""
	el.Find(excerptSel).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if text := normalizeSpace(p.Text()); len(text) > 20 {
			excerpt = text
			return false
		}
		return true
	})
	excerpt = truncateText(excerpt, 200)

	if !isRelevantNews(title, excerpt) {
		return Article{}, false
	}

	return Article{
		URL:           link,
		Title:         title,
		Excerpt:       excerpt,
		PublishedDate: strings.TrimSpace(date),
		SourceName:    source.Name,
	}, true
}
