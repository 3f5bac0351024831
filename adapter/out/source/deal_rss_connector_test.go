package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Deal Feed</title>
  <link>https://deals.example.com</link>
  <item>
    <title>Nike Flash Sale</title>
    <description>30% off sitewide. Use code FLASH30 at checkout.</description>
    <link>https://www.nike.com/sale</link>
    <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Weekend savings at Target</title>
    <description>Clearance on home goods, no coupon needed.</description>
    <link>https://www.target.com/clearance</link>
  </item>
  <item>
    <title>Sephora Beauty Offer</title>
    <description>Use code GLOW15 for 15% off beauty.</description>
  </item>
</channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSConnectorFetch(t *testing.T) {
	srv := serveFeed(t, testFeedXML)

	conn := NewRSSConnector("rss:test", "Test Feed", []string{srv.URL}, 75)
	if got := conn.TrustWeight(); got != 0.75 {
		t.Fatalf("TrustWeight() = %v, want 0.75", got)
	}

	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(coupons) != 2 {
		t.Fatalf("got %d coupons, want 2 (item without a promo code must be dropped)", len(coupons))
	}

	first := coupons[0]
	if first.Code != "FLASH30" {
		t.Errorf("Code = %q, want FLASH30", first.Code)
	}
	if first.Link != "https://www.nike.com/sale" {
		t.Errorf("Link = %q", first.Link)
	}
	if first.StoreHint != "Nike Flash Sale" {
		t.Errorf("StoreHint = %q", first.StoreHint)
	}
	if first.PostedAt == nil {
		t.Fatal("PostedAt not parsed from pubDate")
	}
	want := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if !first.PostedAt.Equal(want) {
		t.Errorf("PostedAt = %v, want %v", first.PostedAt, want)
	}

	second := coupons[1]
	if second.Code != "GLOW15" {
		t.Errorf("Code = %q, want GLOW15", second.Code)
	}
	// An item without its own link falls back to the feed URL.
	if second.Link != srv.URL {
		t.Errorf("Link = %q, want feed URL %q", second.Link, srv.URL)
	}
}

func TestRSSConnectorTrustDefault(t *testing.T) {
	conn := NewRSSConnector("rss:test", "Test", nil, 0)
	if got := conn.TrustWeight(); got != defaultRSSTrust {
		t.Fatalf("TrustWeight() = %v, want %v", got, defaultRSSTrust)
	}
}

func TestRSSConnectorPartialFailure(t *testing.T) {
	good := serveFeed(t, testFeedXML)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	conn := NewRSSConnector("rss:test", "Test", []string{bad.URL, good.URL}, 75)
	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v, want partial success", err)
	}
	if len(coupons) != 2 {
		t.Fatalf("got %d coupons, want 2 from the healthy feed", len(coupons))
	}
}

func TestRSSConnectorAllFeedsFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(bad.Close)

	conn := NewRSSConnector("rss:test", "Test", []string{bad.URL}, 75)
	if _, err := conn.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() = nil error, want failure when no feed could be read")
	}
}
