// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

package apikey

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nordkatt/bolaget-mcp/pkg/observability"
)

const testKey = "0a1b2c3d4e5f60718293a4b5c6d7e8f9"

// newVendorSite spins up a fake Systembolaget website: an HTML page
// referencing an app bundle, and the bundle itself with the embedded key.
func newVendorSite(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		fmt.Fprint(w, `<!DOCTYPE html>
<html><head>
<script src="/polyfills-abc123.js"></script>
<script src="/_next/static/chunks/pages/_app-4f21a0c9.js"></script>
</head><body></body></html>`)
	})
	mux.HandleFunc("/_next/static/chunks/pages/_app-4f21a0c9.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `var env={NEXT_PUBLIC_API_KEY_APIM:%q,NEXT_PUBLIC_OTHER:"x"};`, testKey)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newSource(ts *httptest.Server, ttl time.Duration, override string) *Source {
	return New(Options{
		WebsiteURL: ts.URL,
		TTL:        ttl,
		Override:   override,
		Timeout:    5 * time.Second,
	})
}

func TestExtractsKeyFromBundle(t *testing.T) {
	ts := newVendorSite(t, nil)
	src := newSource(ts, time.Hour, "")

	key, err := src.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if key != testKey {
		t.Errorf("key = %q, want %q", key, testKey)
	}
}

func TestCachedKeySkipsNetwork(t *testing.T) {
	var hits atomic.Int64
	ts := newVendorSite(t, &hits)
	src := newSource(ts, time.Hour, "")

	ctx := context.Background()
	if _, err := src.Get(ctx); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	after := hits.Load()

	if _, err := src.Get(ctx); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if hits.Load() != after {
		t.Errorf("cached Get hit the website (%d -> %d requests)", after, hits.Load())
	}
}

func TestExpiredKeyTriggersReExtraction(t *testing.T) {
	var hits atomic.Int64
	ts := newVendorSite(t, &hits)
	src := newSource(ts, time.Hour, "")

	ctx := context.Background()
	if _, err := src.Get(ctx); err != nil {
		t.Fatalf("first Get: %v", err)
	}

	// Age the cache entry past the TTL.
	src.mu.Lock()
	src.fetchedAt = time.Now().Add(-2 * time.Hour)
	src.mu.Unlock()

	before := hits.Load()
	if _, err := src.Get(ctx); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if hits.Load() == before {
		t.Error("stale cache did not trigger re-extraction")
	}
}

func TestInvalidateClearsCache(t *testing.T) {
	var hits atomic.Int64
	ts := newVendorSite(t, &hits)
	src := newSource(ts, time.Hour, "")

	ctx := context.Background()
	if _, err := src.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}

	src.Invalidate()

	before := hits.Load()
	if _, err := src.Get(ctx); err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if hits.Load() == before {
		t.Error("invalidated cache did not trigger re-extraction")
	}
}

func TestOverrideBypassesScraping(t *testing.T) {
	var hits atomic.Int64
	ts := newVendorSite(t, &hits)
	src := newSource(ts, time.Hour, "env-key")

	key, err := src.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if key != "env-key" {
		t.Errorf("key = %q, want env-key", key)
	}
	if hits.Load() != 0 {
		t.Errorf("override still scraped the website (%d requests)", hits.Load())
	}
}

func TestBundleMissingFromHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script src="/other.js"></script></head></html>`)
	}))
	defer ts.Close()

	src := newSource(ts, time.Hour, "")
	_, err := src.Get(context.Background())
	if !errors.Is(err, ErrBundleNotFound) {
		t.Errorf("err = %v, want ErrBundleNotFound", err)
	}
}

func TestKeyMissingFromBundle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script src="/_app-deadbeef.js"></script></head></html>`)
	})
	mux.HandleFunc("/_app-deadbeef.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `var env={SOMETHING_ELSE:"nope"};`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	src := newSource(ts, time.Hour, "")
	_, err := src.Get(context.Background())
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestWebsiteUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	src := newSource(ts, time.Hour, "")
	if _, err := src.Get(context.Background()); err == nil {
		t.Error("expected error for non-200 website response")
	}
}

func TestMetricsTrackExtractionAndHits(t *testing.T) {
	ts := newVendorSite(t, nil)
	metrics := observability.NewMetrics()
	src := New(Options{
		WebsiteURL: ts.URL,
		TTL:        time.Hour,
		Timeout:    5 * time.Second,
		Metrics:    metrics,
	})

	ctx := context.Background()
	src.Get(ctx)
	src.Get(ctx)

	snap := metrics.Snapshot()
	if snap[observability.KeyExtractions] != 1 {
		t.Errorf("extractions = %d, want 1", snap[observability.KeyExtractions])
	}
	if snap[observability.KeyCacheHits] != 1 {
		t.Errorf("cache hits = %d, want 1", snap[observability.KeyCacheHits])
	}
}
