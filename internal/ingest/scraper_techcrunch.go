package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// TechCrunchScraper walks the TechCrunch climate category listing pages and
// pulls title, link, date and excerpt from each article card.
type TechCrunchScraper struct{}

func NewTechCrunchScraper() *TechCrunchScraper {
	return &TechCrunchScraper{}
}

func (s *TechCrunchScraper) Scrape(ctx context.Context, source SourceConfig) ([]Article, error) {
	c := newCollector([]string{"techcrunch.com"}, source.Fetch)

	var articles []Article
	c.OnHTML("div.loop-card", func(e *colly.HTMLElement) {
		title := normalizeSpace(e.ChildText("h3.loop-card__title a.loop-card__title-link"))
		link := e.ChildAttr("h3.loop-card__title a.loop-card__title-link", "href")
		if title == "" || link == "" {
			return
		}

		articles = append(articles, Article{
			URL:           e.Request.AbsoluteURL(link),
			Title:         title,
			Excerpt:       normalizeSpace(e.ChildText("p.loop-card__excerpt")),
			PublishedDate: e.ChildAttr("time", "datetime"),
			SourceName:    source.Name,
		})
	})

	maxPages := source.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return articles, err
		}

		pageURL := source.URL
		if page > 1 {
			pageURL = strings.TrimRight(source.URL, "/") + fmt.Sprintf("/page/%d/", page)
		}
		if err := c.Visit(pageURL); err != nil {
			log.Printf("[scrape] techcrunch page %d failed: %v", page, err)
			continue
		}
	}
	c.Wait()

	if source.MaxArticles > 0 && len(articles) > source.MaxArticles {
		articles = articles[:source.MaxArticles]
	}
	return articles, nil
}

// FetchContent downloads a single article page and extracts its body text.
func (s *TechCrunchScraper) FetchContent(ctx context.Context, articleURL string) (string, error) {
	fetcher := NewCollyFetcher(FetchConfig{})
	doc, err := fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return "", err
	}
	defer doc.Body.Close()

	page, err := goquery.NewDocumentFromReader(doc.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse article HTML: %w", err)
	}

	for _, sel := range []string{"div.article-content", "div.entry-content", "div.post-content", "article"} {
		if content := page.Find(sel); content.Length() > 0 {
			if text := htmlToText(content.First()); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("no article content found at %s", articleURL)
}
