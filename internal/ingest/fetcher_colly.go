package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// newCollector builds a colly collector configured from a source's
// FetchConfig: per-domain rate limiting, request timeout and charset
// detection. Scrapers attach their own OnHTML/OnXML callbacks.
func newCollector(allowedDomains []string, cfg FetchConfig) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent(defaultUserAgent),
		colly.MaxBodySize(10 * 1024 * 1024),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
	}
	if len(allowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(allowedDomains...))
	}

	c := colly.NewCollector(opts...)

	delay := time.Second
	if cfg.RateLimitRPS > 0 {
		delay = time.Duration(float64(time.Second) / cfg.RateLimitRPS)
	}
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       delay,
		RandomDelay: delay / 2,
	})

	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c.SetRequestTimeout(timeout)

	if cfg.ProxyURL != "" {
		c.SetProxy(cfg.ProxyURL)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	c.OnError(func(r *colly.Response, err error) {
		retries := 0
		if v := r.Request.Ctx.GetAny("retries"); v != nil {
			retries = v.(int)
		}
		if retries < maxRetries {
			r.Request.Ctx.Put("retries", retries+1)
			log.Printf("[scrape] retry %d/%d for %s: %v", retries+1, maxRetries, r.Request.URL, err)
			time.Sleep(time.Duration(retries+1) * time.Second)
			r.Request.Retry()
		}
	})

	if cfg.AcceptLanguage != "" {
		c.OnRequest(func(r *colly.Request) {
			r.Headers.Set("Accept-Language", cfg.AcceptLanguage)
		})
	}

	return c
}

// CollyFetcher implements Fetcher using a colly collector, giving one-off
// fetches the same rate limiting and retry behavior as the scrapers.
type CollyFetcher struct {
	Config FetchConfig
}

func NewCollyFetcher(cfg FetchConfig) *CollyFetcher {
	return &CollyFetcher{Config: cfg}
}

func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	c := newCollector([]string{parsed.Host}, f.Config)

	var result *FetchedDocument
	var fetchErr error
	var once sync.Once
	done := make(chan struct{})

	c.OnResponse(func(r *colly.Response) {
		once.Do(func() {
			result = &FetchedDocument{
				URL:         r.Request.URL.String(),
				StatusCode:  r.StatusCode,
				ContentType: r.Headers.Get("Content-Type"),
				Body:        io.NopCloser(bytes.NewReader(r.Body)),
				FetchedAt:   time.Now(),
				Headers:     map[string][]string(r.Headers.Clone()),
			}
			close(done)
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		retries := 0
		if v := r.Request.Ctx.GetAny("retries"); v != nil {
			retries = v.(int)
		}
		maxRetries := f.Config.MaxRetries
		if maxRetries == 0 {
			maxRetries = 3
		}
		if retries >= maxRetries {
			once.Do(func() {
				fetchErr = fmt.Errorf("fetch failed after %d retries: %w", maxRetries, err)
				close(done)
			})
		}
	})

	if err := c.Visit(targetURL); err != nil {
		return nil, fmt.Errorf("visit failed: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	if result == nil {
		return nil, fmt.Errorf("no response received for %s", targetURL)
	}
	return result, nil
}
