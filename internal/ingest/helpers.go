package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var stripTagsPolicy = bluemonday.StrictPolicy()

// fundingKeywords and climateKeywords gate which scraped articles are worth
// storing. An article must mention both groups to pass the relevance filter.
var fundingKeywords = []string{
	"funding", "investment", "raises", "raised", "series", "venture",
	"capital", "million", "billion",
}

var climateKeywords = []string{
	"climate", "clean", "green", "renewable", "energy", "carbon",
	"solar", "wind", "battery", "electric",
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// isRelevantNews reports whether title+excerpt look like climate-tech
// funding news. Matching is case-insensitive substring matching.
func isRelevantNews(title, excerpt string) bool {
	combined := strings.ToLower(title + " " + excerpt)
	return containsAny(combined, fundingKeywords) && containsAny(combined, climateKeywords)
}

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripHTML removes all markup from a fragment, leaving plain text.
func stripHTML(s string) string {
	return normalizeSpace(stripTagsPolicy.Sanitize(s))
}

// htmlToText extracts readable text from an HTML document body, dropping
// script, style and nav chrome. Paragraphs are separated by newlines.
func htmlToText(doc *goquery.Selection) string {
	sel := doc.Clone()
	sel.Find("script, style, nav, header, footer, aside").Remove()

	var parts []string
	sel.Find("p, h1, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return normalizeSpace(sel.Text())
	}
	return strings.Join(parts, "\n")
}

// truncateText caps a string at max runes without splitting a rune.
func truncateText(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// absoluteURL resolves href against base when href is relative.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

func mergeUniqueFold(dst []string, items []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		k := strings.ToLower(strings.TrimSpace(v))
		if k != "" {
			seen[k] = struct{}{}
		}
	}

	for _, v := range items {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		dst = append(dst, v)
		seen[k] = struct{}{}
	}

	return dst
}
