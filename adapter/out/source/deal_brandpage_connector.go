package source

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"sync"

	"deal_server/core/domain"
	"deal_server/core/service/normalize"
	"deal_server/pkg/httputil"
	"deal_server/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"
)

// Scraped brand pages are first-party but unstructured.
const brandPageTrust = 0.65

const scrapeUserAgent = "deal-server"

// BrandPageConnector scrapes configured brand promo pages for codes. Every
// origin is checked against its robots.txt before fetching; a page the site
// disallows is skipped.
type BrandPageConnector struct {
	pages []string

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

// NewBrandPageConnector builds the scraper over the configured page list.
func NewBrandPageConnector(pages []string) *BrandPageConnector {
	return &BrandPageConnector{
		pages:  pages,
		robots: make(map[string]*robotstxt.RobotsData),
	}
}

func (c *BrandPageConnector) ID() string           { return "brand-promos" }
func (c *BrandPageConnector) Kind() string         { return "brand_page" }
func (c *BrandPageConnector) TrustWeight() float64 { return brandPageTrust }

func (c *BrandPageConnector) Fetch(ctx context.Context) ([]domain.RawCoupon, error) {
	var coupons []domain.RawCoupon

	for _, pageURL := range c.pages {
		parsed, err := url.Parse(pageURL)
		if err != nil || parsed.Host == "" {
			logger.WithSource(c.ID()).Warn("Skipping unparseable promo page", "url", pageURL)
			continue
		}

		if !c.allowed(ctx, parsed) {
			logger.WithSource(c.ID()).Info("Skipping promo page disallowed by robots.txt", "url", pageURL)
			continue
		}

		raw, ok := c.scrapePage(ctx, pageURL, parsed.Host)
		if ok {
			coupons = append(coupons, raw)
		}
	}
	return coupons, nil
}

// allowed consults the origin's robots.txt, cached per host for the life of
// the connector. An unreachable robots.txt counts as allowed.
func (c *BrandPageConnector) allowed(ctx context.Context, page *url.URL) bool {
	host := strings.ToLower(page.Host)

	c.mu.Lock()
	data, ok := c.robots[host]
	c.mu.Unlock()

	if !ok {
		robotsURL := page.Scheme + "://" + page.Host + "/robots.txt"
		body, err := httputil.FetchBody(ctx, httputil.ScrapeClient(), robotsURL, 256<<10)
		if err == nil {
			if parsed, perr := robotstxt.FromBytes(body); perr == nil {
				data = parsed
			}
		}

		c.mu.Lock()
		c.robots[host] = data
		c.mu.Unlock()
	}

	if data == nil {
		return true
	}
	return data.TestAgent(page.Path, scrapeUserAgent)
}

func (c *BrandPageConnector) scrapePage(ctx context.Context, pageURL, host string) (domain.RawCoupon, bool) {
	body, err := httputil.FetchBody(ctx, httputil.ScrapeClient(), pageURL, 0)
	if err != nil {
		logger.WithSource(c.ID()).WithError(err).Warn("Promo page fetch failed", "url", pageURL)
		return domain.RawCoupon{}, false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.WithSource(c.ID()).WithError(err).Warn("Promo page parse failed", "url", pageURL)
		return domain.RawCoupon{}, false
	}

	doc.Find("script, style, noscript").Remove()
	text := doc.Find("body").Text()

	code := normalize.ExtractCode(text)
	if code == "" {
		return domain.RawCoupon{}, false
	}

	name := brandNameFromHost(host)
	return domain.RawCoupon{
		Title:     name + " deals",
		Deal:      name + " deals",
		Code:      code,
		Link:      pageURL,
		StoreHint: name,
		Domain:    host,
	}, true
}

// brandNameFromHost turns "www.glossier.com" into "Glossier".
func brandNameFromHost(host string) string {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	base := host
	if i := strings.Index(host, "."); i > 0 {
		base = host[:i]
	}
	if base == "" {
		return host
	}
	return strings.ToUpper(base[:1]) + base[1:]
}
