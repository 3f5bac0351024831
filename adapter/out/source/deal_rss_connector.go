package source

import (
	"context"
	"strings"

	"deal_server/core/domain"
	"deal_server/core/service/normalize"
	"deal_server/pkg/httputil"
	"deal_server/pkg/logger"

	"github.com/mmcdole/gofeed"
)

// Default trust for RSS sources without an explicit confidence setting.
const defaultRSSTrust = 0.7

// RSSConnector pulls offers from one or more RSS/Atom feeds. Items without a
// detectable code are dropped here; everything else is left to the
// normalizer.
type RSSConnector struct {
	id     string
	label  string
	feeds  []string
	trust  float64
	parser *gofeed.Parser
}

// NewRSSConnector builds a connector for one configured RSS source.
// confidence is on the 0-100 scale the config uses.
func NewRSSConnector(id, label string, feeds []string, confidence float64) *RSSConnector {
	trust := defaultRSSTrust
	if confidence > 0 {
		trust = confidence / 100
	}

	parser := gofeed.NewParser()
	parser.Client = httputil.FeedClient()
	parser.UserAgent = "deal-server/1.0 (+deal aggregation bot)"

	return &RSSConnector{
		id:     id,
		label:  label,
		feeds:  feeds,
		trust:  trust,
		parser: parser,
	}
}

func (c *RSSConnector) ID() string           { return c.id }
func (c *RSSConnector) Kind() string         { return "rss" }
func (c *RSSConnector) TrustWeight() float64 { return c.trust }

// Fetch walks every configured feed. A feed that fails to parse is logged
// and skipped; the fetch only fails when no feed could be read at all.
func (c *RSSConnector) Fetch(ctx context.Context) ([]domain.RawCoupon, error) {
	var coupons []domain.RawCoupon
	var lastErr error
	parsed := 0

	for _, feedURL := range c.feeds {
		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			logger.WithSource(c.id).WithError(err).Warn("RSS feed fetch failed", "url", feedURL)
			lastErr = err
			continue
		}
		parsed++

		for _, item := range feed.Items {
			if raw, ok := c.parseItem(item, feedURL); ok {
				coupons = append(coupons, raw)
			}
		}
	}

	if parsed == 0 && lastErr != nil {
		return nil, lastErr
	}
	return coupons, nil
}

func (c *RSSConnector) parseItem(item *gofeed.Item, feedURL string) (domain.RawCoupon, bool) {
	if item == nil || item.Title == "" {
		return domain.RawCoupon{}, false
	}

	text := strings.Join([]string{item.Title, item.Description, item.Content}, " ")
	code := normalize.ExtractCode(text)
	if code == "" {
		return domain.RawCoupon{}, false
	}

	deal := item.Title
	if item.Description != "" {
		deal = item.Title + " - " + item.Description
	}

	link := item.Link
	if link == "" {
		link = feedURL
	}

	raw := domain.RawCoupon{
		Title:     item.Title,
		Deal:      strings.TrimSpace(deal),
		Code:      code,
		Link:      link,
		StoreHint: item.Title,
	}
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		raw.PostedAt = &t
	}
	return raw, true
}
