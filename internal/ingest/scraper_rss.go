package ingest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gocolly/colly/v2"
)

// RSSScraper reads RSS/Atom feeds and keeps only items that look like
// climate-tech funding news. Item bodies come from the feed description;
// the pipeline fetches full content separately when needed.
type RSSScraper struct{}

func NewRSSScraper() *RSSScraper {
	return &RSSScraper{}
}

func (s *RSSScraper) Scrape(ctx context.Context, source SourceConfig) ([]Article, error) {
	parsed, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	c := newCollector([]string{parsed.Host}, source.Fetch)

	var articles []Article
	collect := func(title, link, date, desc string) {
		if title == "" || link == "" {
			return
		}
		excerpt := stripHTML(desc)
		if !isRelevantNews(title, excerpt) {
			return
		}
		articles = append(articles, Article{
			URL:           link,
			Title:         normalizeSpace(title),
			Excerpt:       truncateText(excerpt, 500),
			PublishedDate: date,
			SourceName:    source.Name,
		})
	}

	c.OnXML("//item", func(e *colly.XMLElement) {
		collect(e.ChildText("title"), e.ChildText("link"), e.ChildText("pubDate"), e.ChildText("description"))
	})
	// Atom feeds
	c.OnXML("//entry", func(e *colly.XMLElement) {
		link := e.ChildAttr("link", "href")
		collect(e.ChildText("title"), link, e.ChildText("updated"), e.ChildText("summary"))
	})

	if err := c.Visit(source.URL); err != nil {
		return nil, fmt.Errorf("feed fetch failed: %w", err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return articles, err
	}
	if source.MaxArticles > 0 && len(articles) > source.MaxArticles {
		articles = articles[:source.MaxArticles]
	}
	return articles, nil
}
