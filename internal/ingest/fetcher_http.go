package ingest

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"
)

const maxRedirects = 5

// Address space article fetches must never reach. Source URLs come from an
// operator-editable config file, so the fetcher treats every target as
// untrusted and blocks anything that resolves to an internal address.
var blockedNets = func() []netip.Prefix {
	raw := []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"100.64.0.0/10",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	prefixes := make([]netip.Prefix, 0, len(raw))
	for _, s := range raw {
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}()

// hostState is the per-news-site fetch state: one client so connections are
// reused across listing and article fetches, one ticker so the site is hit
// at its configured pace.
type hostState struct {
	client *http.Client
	pace   *time.Ticker
}

// PageFetcher retrieves listing and article pages for sources without a
// dedicated colly scraper. Transient failures (timeouts, 429, 5xx) are
// retried with jittered backoff; everything else fails fast so a broken
// source does not stall the scraping cycle.
type PageFetcher struct {
	cfg FetchConfig

	mu    sync.Mutex
	hosts map[string]*hostState
}

func NewPageFetcher(cfg FetchConfig) *PageFetcher {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 1.0
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "en-US,en;q=0.5"
	}

	return &PageFetcher{
		cfg:   cfg,
		hosts: make(map[string]*hostState),
	}
}

func (f *PageFetcher) hostFor(target *url.URL) *hostState {
	f.mu.Lock()
	defer f.mu.Unlock()

	if state, ok := f.hosts[target.Host]; ok {
		return state
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         guardedDialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if f.cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(f.cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	state := &hostState{
		client: &http.Client{
			Timeout:       time.Duration(f.cfg.TimeoutSeconds) * time.Second,
			Transport:     transport,
			CheckRedirect: guardedCheckRedirect,
		},
		pace: time.NewTicker(time.Duration(float64(time.Second) / f.cfg.RateLimitRPS)),
	}
	f.hosts[target.Host] = state
	return state
}

// Fetch implements Fetcher. The call blocks until the target host's rate
// ticker fires, then runs the retry loop.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (*FetchedDocument, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid article URL: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", target.Scheme)
	}

	state := f.hostFor(target)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-state.pace.C:
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", defaultUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)

		resp, err := state.client.Do(req)
		if err != nil {
			if isTimeout(err) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("fetch failed: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return &FetchedDocument{
				URL:         rawURL,
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
				Body:        resp.Body,
				FetchedAt:   time.Now(),
				Headers:     resp.Header,
			}, nil
		}

		resp.Body.Close()
		if !retryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("status code %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isTimeout(err error) bool {
	netErr, ok := err.(interface{ Timeout() bool })
	return ok && netErr.Timeout()
}

// retryableStatus reports whether a response status is worth another
// attempt. News sites throttle aggressively, so 429 is the common case.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// guardedDialContext resolves the host first and refuses to connect when any
// resolved address is internal.
func guardedDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if blockedAddr(a) {
			return nil, fmt.Errorf("blocked internal address: %s", a)
		}
	}

	d := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return d.DialContext(ctx, network, addr)
}

func blockedAddr(a netip.Addr) bool {
	if !a.IsValid() {
		return true
	}
	a = a.Unmap()
	if a.IsLoopback() || a.IsPrivate() || a.IsLinkLocalUnicast() ||
		a.IsLinkLocalMulticast() || a.IsMulticast() || a.IsUnspecified() {
		return true
	}
	for _, p := range blockedNets {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// guardedCheckRedirect caps the redirect chain and re-runs the internal
// address check on every hop, since a public article URL may redirect
// anywhere.
func guardedCheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if req.URL == nil {
		return fmt.Errorf("invalid redirect URL")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect scheme blocked")
	}

	host := req.URL.Hostname()
	if host == "" {
		return fmt.Errorf("redirect host missing")
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".local") {
		return fmt.Errorf("redirect to internal host blocked")
	}

	addrs, err := net.DefaultResolver.LookupNetIP(req.Context(), "ip", host)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return fmt.Errorf("redirect host resolved to no addresses")
	}
	for _, a := range addrs {
		if blockedAddr(a) {
			return fmt.Errorf("redirect to internal address blocked: %s", a)
		}
	}

	return nil
}
