package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"deal_server/config"
)

func testMapping() config.AffiliateMapping {
	return config.AffiliateMapping{
		Store:     "advertiser_name",
		Domain:    "advertiser_domain",
		Deal:      "offer_description",
		Code:      "coupon_code",
		SourceURL: "click_url",
	}
}

func serveBody(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAffiliateConnectorCSV(t *testing.T) {
	csvBody := "Advertiser_Name,advertiser_domain,offer_description,coupon_code,click_url\n" +
		"Nike,nike.com,20% off running shoes,RUN20,https://track.example.com/nike\n" +
		"Adidas,adidas.com,Free shipping on orders,,https://track.example.com/adidas\n" +
		"Sephora,sephora.com,,GLOW10,https://track.example.com/sephora\n" +
		",,15% off sitewide,SAVE15,https://track.example.com/mystery\n"

	srv := serveBody(t, "text/csv", csvBody)
	conn := NewAffiliateConnector(config.AffiliateImport{
		ID:      "net1",
		Label:   "Partner Network",
		URL:     srv.URL,
		Format:  "csv",
		Mapping: testMapping(),
	})

	if got := conn.ID(); got != "affiliate:net1" {
		t.Fatalf("ID() = %q", got)
	}

	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// Rows missing a code or deal text are dropped. The last row keeps the
	// click URL as its domain and the import label as its store hint.
	if len(coupons) != 2 {
		t.Fatalf("got %d coupons, want 2", len(coupons))
	}

	first := coupons[0]
	if first.Code != "RUN20" || first.Domain != "nike.com" || first.StoreHint != "Nike" {
		t.Errorf("first coupon = %+v", first)
	}
	if first.Link != "https://track.example.com/nike" {
		t.Errorf("Link = %q", first.Link)
	}

	fallback := coupons[1]
	if fallback.StoreHint != "Partner Network" {
		t.Errorf("StoreHint = %q, want import label fallback", fallback.StoreHint)
	}
	if fallback.Domain != "https://track.example.com/mystery" {
		t.Errorf("Domain = %q, want click URL fallback", fallback.Domain)
	}
}

func TestAffiliateConnectorJSON(t *testing.T) {
	jsonBody := `[
		{"Advertiser_Name": "Ulta", "advertiser_domain": "ulta.com", "offer_description": "BOGO on mascara", "coupon_code": "BOGO", "click_url": "https://track.example.com/ulta"},
		{"advertiser_name": "Target", "advertiser_domain": "target.com", "offer_description": "Spring clearance"}
	]`

	srv := serveBody(t, "application/json", jsonBody)
	conn := NewAffiliateConnector(config.AffiliateImport{
		ID:      "net2",
		Label:   "JSON Network",
		URL:     srv.URL,
		Format:  "json",
		Mapping: testMapping(),
	})

	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(coupons) != 1 {
		t.Fatalf("got %d coupons, want 1", len(coupons))
	}
	if coupons[0].Code != "BOGO" || coupons[0].StoreHint != "Ulta" {
		t.Errorf("coupon = %+v", coupons[0])
	}
}

func TestAffiliateConnectorNoURL(t *testing.T) {
	conn := NewAffiliateConnector(config.AffiliateImport{ID: "net3", Label: "Unconfigured", Mapping: testMapping()})
	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if coupons != nil {
		t.Fatalf("got %d coupons, want none for an unconfigured import", len(coupons))
	}
}

func TestAffiliateConnectorFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	conn := NewAffiliateConnector(config.AffiliateImport{ID: "net4", URL: srv.URL, Format: "csv", Mapping: testMapping()})
	if _, err := conn.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() = nil error, want failure on non-2xx response")
	}
}
