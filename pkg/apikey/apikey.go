// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

// Package apikey extracts and caches the Systembolaget API key.
//
// The key is not publicly documented. Systembolaget's own web frontend ships
// it inside a Next.js app bundle, so we scrape the website for the bundle's
// <script src> reference, fetch the bundle, and pull the key out of it.
// Extracted keys are cached for a TTL to keep tool calls cheap.
package apikey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gocolly/colly/v2"

	"github.com/nordkatt/bolaget-mcp/pkg/observability"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

var (
	// bundleSrcPattern matches the Next.js app bundle script, e.g.
	// /_next/static/chunks/pages/_app-4f21a0c9e81d.js
	bundleSrcPattern = regexp.MustCompile(`_app-.+\.js$`)

	// keyPattern matches the embedded subscription key inside the bundle:
	// NEXT_PUBLIC_API_KEY_APIM:"<key>"
	keyPattern = regexp.MustCompile(`NEXT_PUBLIC_API_KEY_APIM:"([^"]+)"`)
)

// Sentinel errors for the two scrape stages that can fail without a
// transport error.
var (
	ErrBundleNotFound = errors.New("app bundle script not found in website HTML")
	ErrKeyNotFound    = errors.New("API key not found in app bundle")
)

// Options configures a Source.
type Options struct {
	WebsiteURL string
	TTL        time.Duration
	Override   string // pre-known key; skips scraping entirely
	Timeout    time.Duration
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// Source extracts and caches the API key. The cache is a single value plus
// its acquisition time; concurrent extractions may race and overwrite each
// other, which is harmless since they converge on the same live key.
type Source struct {
	websiteURL string
	ttl        time.Duration
	override   string
	http       *resty.Client
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu        sync.Mutex
	cached    string
	fetchedAt time.Time
}

// New creates a key Source.
func New(opts Options) *Source {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics()
	}
	return &Source{
		websiteURL: strings.TrimRight(opts.WebsiteURL, "/"),
		ttl:        opts.TTL,
		override:   opts.Override,
		http:       resty.New().SetTimeout(opts.Timeout).SetHeader("User-Agent", userAgent),
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Get returns a usable API key, extracting one from the website if the cache
// is empty or stale.
func (s *Source) Get(ctx context.Context) (string, error) {
	if key, ok := s.cachedKey(); ok {
		return key, nil
	}

	// A configured override counts as freshly extracted.
	if s.override != "" {
		s.logger.Info("using API key override from environment")
		s.store(s.override)
		return s.override, nil
	}

	s.logger.Info("extracting API key from website", "url", s.websiteURL)

	bundlePath, err := s.bundlePath()
	if err != nil {
		return "", err
	}

	bundleURL := bundlePath
	if !strings.HasPrefix(bundlePath, "http") {
		if !strings.HasPrefix(bundlePath, "/") {
			bundlePath = "/" + bundlePath
		}
		bundleURL = s.websiteURL + bundlePath
	}

	key, err := s.keyFromBundle(ctx, bundleURL)
	if err != nil {
		return "", err
	}

	s.store(key)
	s.metrics.Counter(observability.KeyExtractions).Inc()
	s.logger.Info("API key extracted and cached")
	return key, nil
}

// Invalidate clears the cached key unconditionally. The gateway calls this
// after a 403 so the next Get re-extracts.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = ""
	s.fetchedAt = time.Time{}
	s.logger.Info("API key cache invalidated")
}

func (s *Source) cachedKey() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == "" {
		return "", false
	}
	age := time.Since(s.fetchedAt)
	if age >= s.ttl {
		s.logger.Info("API key cache expired", "age", age.Round(time.Second))
		return "", false
	}
	s.metrics.Counter(observability.KeyCacheHits).Inc()
	return s.cached, true
}

func (s *Source) store(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = key
	s.fetchedAt = time.Now()
}

// bundlePath scrapes the website HTML for the app bundle script reference.
func (s *Source) bundlePath() (string, error) {
	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(s.http.GetClient().Timeout)

	var path string
	c.OnHTML(`script[src]`, func(e *colly.HTMLElement) {
		if path != "" {
			return
		}
		src := e.Attr("src")
		if bundleSrcPattern.MatchString(src) {
			path = src
		}
	})

	if err := c.Visit(s.websiteURL); err != nil {
		return "", fmt.Errorf("fetch website: %w", err)
	}
	c.Wait()

	if path == "" {
		return "", ErrBundleNotFound
	}
	s.logger.Debug("found app bundle", "path", path)
	return path, nil
}

// keyFromBundle fetches the JS bundle and extracts the embedded key.
func (s *Source) keyFromBundle(ctx context.Context, bundleURL string) (string, error) {
	resp, err := s.http.R().SetContext(ctx).Get(bundleURL)
	if err != nil {
		return "", fmt.Errorf("fetch app bundle: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("fetch app bundle: unexpected status %d", resp.StatusCode())
	}

	m := keyPattern.FindSubmatch(resp.Body())
	if m == nil {
		return "", ErrKeyNotFound
	}
	return string(m[1]), nil
}
