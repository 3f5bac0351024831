package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// noCodeMarker keeps codeless offers from colliding with coded ones on the
// same page.
const noCodeMarker = "NO_CODE"

// DedupeKey derives the stable identity of an offer. The same store, code,
// landing page, and title always hash to the same key regardless of which
// source delivered the offer.
func DedupeKey(storeID, code, canonicalURL, title string) string {
	codePart := strings.ToUpper(strings.TrimSpace(code))
	if codePart == "" {
		codePart = noCodeMarker
	}

	payload := strings.Join([]string{
		storeID,
		codePart,
		canonicalURL,
		NormalizeText(title),
	}, "|")

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
