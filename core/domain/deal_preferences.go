package domain

import "time"

// Preferences holds per-device personalization settings. A device gets a
// default row lazily on first access.
type Preferences struct {
	DeviceID           string     `json:"device_id"`
	FavoriteStores     []string   `json:"favorite_stores"`
	BlockedStores      []string   `json:"blocked_stores"`
	Categories         []string   `json:"categories"`
	Watchlist          []string   `json:"watchlist"`
	NotifyOnStoreDrops bool       `json:"notify_on_store_drops"`
	LastDigestSentAt   *time.Time `json:"last_digest_sent_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// DefaultPreferences returns the row created on first access.
func DefaultPreferences(deviceID string, now time.Time) *Preferences {
	return &Preferences{
		DeviceID:           deviceID,
		FavoriteStores:     []string{},
		BlockedStores:      []string{},
		Categories:         []string{},
		Watchlist:          []string{},
		NotifyOnStoreDrops: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// PreferencesUpdate carries a partial update. Nil fields are left untouched;
// provided lists replace the stored ones wholesale.
type PreferencesUpdate struct {
	FavoriteStores     *[]string `json:"favorite_stores,omitempty"`
	BlockedStores      *[]string `json:"blocked_stores,omitempty"`
	Categories         *[]string `json:"categories,omitempty"`
	Watchlist          *[]string `json:"watchlist,omitempty"`
	NotifyOnStoreDrops *bool     `json:"notify_on_store_drops,omitempty"`
}

// DigestStores returns the store set a digest should cover: favorites plus
// watchlist, deduplicated.
func (p *Preferences) DigestStores() []string {
	seen := make(map[string]bool)
	var stores []string
	for _, id := range p.FavoriteStores {
		if !seen[id] {
			seen[id] = true
			stores = append(stores, id)
		}
	}
	for _, id := range p.Watchlist {
		if !seen[id] {
			seen[id] = true
			stores = append(stores, id)
		}
	}
	return stores
}
