package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const promoPageHTML = `<!doctype html>
<html>
<head><script>var tracker = "IGNOREME";</script></head>
<body>
  <h1>Current promotions</h1>
  <p>Spring offer: use code GLOW15 at checkout for 15% off.</p>
</body>
</html>`

func TestBrandPageConnectorScrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: deal-server\nDisallow: /blocked\n"))
	})
	mux.HandleFunc("/promos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(promoPageHTML))
	})
	mux.HandleFunc("/blocked", func(w http.ResponseWriter, r *http.Request) {
		t.Error("fetched a page disallowed by robots.txt")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	conn := NewBrandPageConnector([]string{
		srv.URL + "/promos",
		srv.URL + "/blocked",
		"not a url",
	})

	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(coupons) != 1 {
		t.Fatalf("got %d coupons, want 1", len(coupons))
	}

	got := coupons[0]
	if got.Code != "GLOW15" {
		t.Errorf("Code = %q, want GLOW15 (script content must not be scanned)", got.Code)
	}
	if got.Link != srv.URL+"/promos" {
		t.Errorf("Link = %q", got.Link)
	}
	if got.Domain == "" || got.StoreHint == "" {
		t.Errorf("missing store attribution: %+v", got)
	}
}

func TestBrandPageConnectorMissingRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/promos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(promoPageHTML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	conn := NewBrandPageConnector([]string{srv.URL + "/promos"})
	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// An unreachable robots.txt does not block scraping.
	if len(coupons) != 1 {
		t.Fatalf("got %d coupons, want 1", len(coupons))
	}
}

func TestBrandPageConnectorNoCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nAllow: /\n"))
	})
	mux.HandleFunc("/promos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>Browse our seasonal markdowns.</p></body></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	conn := NewBrandPageConnector([]string{srv.URL + "/promos"})
	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(coupons) != 0 {
		t.Fatalf("got %d coupons, want none from a page without a promo code", len(coupons))
	}
}

func TestBrandNameFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"www.glossier.com", "Glossier"},
		{"shop.nike.com", "Shop"},
		{"SEPHORA.com", "Sephora"},
	}
	for _, tt := range tests {
		if got := brandNameFromHost(tt.host); got != tt.want {
			t.Errorf("brandNameFromHost(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
	if got := brandNameFromHost("localhost"); !strings.EqualFold(got, "localhost") {
		t.Errorf("brandNameFromHost(localhost) = %q", got)
	}
}
