package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all news sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 30
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Default: 3
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 1.0
	ProxyURL       string  `yaml:"proxy_url,omitempty"`
	AcceptLanguage string  `yaml:"accept_language,omitempty"`
}

// SelectorConfig drives the generic HTML scraper. Empty selectors fall back
// to common news-site patterns.
type SelectorConfig struct {
	Container string `yaml:"container,omitempty"` // CSS selector for the article wrapper
	Link      string `yaml:"link,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Date      string `yaml:"date,omitempty"`
	Excerpt   string `yaml:"excerpt,omitempty"`
}

// SourceConfig defines a single news source.
type SourceConfig struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Strategy    Strategy       `yaml:"strategy"` // "rss", "techcrunch", "html"
	URL         string         `yaml:"url"`
	Active      bool           `yaml:"active"`
	MaxArticles int            `yaml:"max_articles,omitempty"` // per scrape cycle, default 10
	MaxPages    int            `yaml:"max_pages,omitempty"`    // listing pages to walk, default 1
	Fetch       FetchConfig    `yaml:"fetch,omitempty"`
	Selectors   SelectorConfig `yaml:"selectors,omitempty"`
}

// LoadRegistry reads the embedded sources.yaml, falling back to the
// filesystem path for local overrides. Environment variables inside the
// YAML (e.g. ${API_KEY}) are expanded.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("failed to parse sources config: %w", err)
	}

	return &reg, nil
}

// Enabled returns the active sources in config order.
func (r *Registry) Enabled() []SourceConfig {
	var out []SourceConfig
	for _, src := range r.Sources {
		if src.Active {
			out = append(out, src)
		}
	}
	return out
}

// Find returns the source with the given ID.
func (r *Registry) Find(id string) (SourceConfig, bool) {
	for _, src := range r.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return SourceConfig{}, false
}
