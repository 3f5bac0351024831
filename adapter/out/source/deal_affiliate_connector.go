package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"deal_server/config"
	"deal_server/core/domain"
	"deal_server/pkg/httputil"
	"deal_server/pkg/logger"

	"github.com/goccy/go-json"
)

// Affiliate feeds are partner-curated, so they carry a fixed trust.
const affiliateTrust = 0.7

// AffiliateConnector imports offers from one affiliate feed, CSV or JSON,
// using the configured column mapping.
type AffiliateConnector struct {
	imp config.AffiliateImport
}

// NewAffiliateConnector builds a connector for one affiliate import.
func NewAffiliateConnector(imp config.AffiliateImport) *AffiliateConnector {
	return &AffiliateConnector{imp: imp}
}

func (c *AffiliateConnector) ID() string           { return "affiliate:" + c.imp.ID }
func (c *AffiliateConnector) Kind() string         { return "affiliate" }
func (c *AffiliateConnector) TrustWeight() float64 { return affiliateTrust }

func (c *AffiliateConnector) Fetch(ctx context.Context) ([]domain.RawCoupon, error) {
	if c.imp.URL == "" {
		logger.WithSource(c.ID()).Info("Skipping affiliate import because no URL is configured")
		return nil, nil
	}

	body, err := httputil.FetchBody(ctx, httputil.FeedClient(), c.imp.URL, 0)
	if err != nil {
		return nil, fmt.Errorf("affiliate import %s: %w", c.imp.ID, err)
	}

	var records []map[string]string
	if c.imp.Format == "json" {
		records = parseJSONRecords(body)
	} else {
		records, err = parseCSVRecords(body)
		if err != nil {
			return nil, fmt.Errorf("affiliate import %s: %w", c.imp.ID, err)
		}
	}

	var coupons []domain.RawCoupon
	for _, record := range records {
		if raw, ok := c.mapRecord(record); ok {
			coupons = append(coupons, raw)
		}
	}
	return coupons, nil
}

// mapRecord applies the column mapping. Records missing a domain, deal text,
// or code are dropped.
func (c *AffiliateConnector) mapRecord(record map[string]string) (domain.RawCoupon, bool) {
	get := func(column string) string {
		return strings.TrimSpace(record[strings.ToLower(column)])
	}

	store := get(c.imp.Mapping.Store)
	if store == "" {
		store = c.imp.Label
	}
	sourceURL := get(c.imp.Mapping.SourceURL)
	domainValue := get(c.imp.Mapping.Domain)
	if domainValue == "" {
		domainValue = sourceURL
	}
	deal := get(c.imp.Mapping.Deal)
	code := get(c.imp.Mapping.Code)

	if domainValue == "" || deal == "" || code == "" {
		return domain.RawCoupon{}, false
	}

	return domain.RawCoupon{
		Title:     deal,
		Deal:      deal,
		Code:      code,
		Link:      sourceURL,
		StoreHint: store,
		Domain:    domainValue,
	}, true
}

func parseCSVRecords(body []byte) ([]map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// parseJSONRecords accepts an array of flat objects. Anything else yields no
// records, matching the lenient behavior of the CSV path.
func parseJSONRecords(body []byte) []map[string]string {
	var parsed []map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}

	records := make([]map[string]string, 0, len(parsed))
	for _, row := range parsed {
		record := make(map[string]string, len(row))
		for key, value := range row {
			if value == nil {
				continue
			}
			record[strings.ToLower(key)] = fmt.Sprintf("%v", value)
		}
		records = append(records, record)
	}
	return records
}
