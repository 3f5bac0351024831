// Package registry resolves free-form store hints against the known store
// catalog.
package registry

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"deal_server/core/domain"
	"deal_server/core/service/normalize"
)

// Matching weights. Popularity is the base score so a tie between two
// matched stores falls to the better-known one.
const (
	aliasExactBoost   = 70
	nameExactBoost    = 70
	containmentBoost  = 30
	hintContainsBoost = 25
	domainBoost       = 80
)

var naturalHairStoreIDs = []string{
	"sally-beauty",
	"sheamoisture",
	"cantu",
	"mielle-organics",
	"camille-rose",
	"tgin",
	"as-i-am",
	"carol-s-daughter",
	"pattern-beauty",
	"design-essentials",
	"the-doux",
	"kinky-curly",
	"eden-bodyworks",
}

var skincareStoreIDs = []string{
	"cvs-pharmacy",
	"walgreens",
	"target",
	"walmart",
	"rite-aid",
	"cerave",
	"cetaphil",
	"the-ordinary",
	"la-roche-posay",
	"neutrogena",
	"olay",
	"paulas-choice",
	"kiehls",
}

type keywordIntent struct {
	keywords  []string
	targetIDs []string
	boost     int
}

var keywordIntentBoosts = []keywordIntent{
	{
		keywords:  []string{"makeup", "cosmetics", "mascara", "lipstick", "eyeliner", "foundation", "blush", "concealer"},
		targetIDs: []string{"ulta-beauty", "sephora"},
		boost:     45,
	},
	{
		keywords:  []string{"natural hair", "naturalhair", "4c", "leave in", "leave-in", "twist out", "kinky", "curly", "co wash", "wash and go"},
		targetIDs: naturalHairStoreIDs,
		boost:     40,
	},
	{
		keywords:  []string{"skincare", "moisture", "hydrating", "hydration", "cerave", "cetaphil", "ordinary", "spf", "serum", "cleanser"},
		targetIDs: skincareStoreIDs,
		boost:     35,
	},
}

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeHint flattens a hint for matching: lowercase, "&" spelled out,
// punctuation collapsed to spaces.
func normalizeHint(s string) string {
	lowered := strings.ToLower(s)
	lowered = strings.ReplaceAll(lowered, "&", " and ")
	lowered = nonAlnumPattern.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(lowered)
}

type indexedStore struct {
	store          *domain.Store
	normalizedName string
	aliases        []string
}

// Registry is an in-memory store matcher built once at startup from the
// seeded catalog. It is explicitly constructed and injected; there is no
// package-level instance.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Store
	byDomain map[string]*domain.Store
	indexed  []indexedStore
	unknown  *domain.Store
}

// New builds a registry from the store catalog. A sentinel unknown store is
// added when the catalog does not carry one.
func New(stores []*domain.Store) *Registry {
	r := &Registry{
		byID:     make(map[string]*domain.Store),
		byDomain: make(map[string]*domain.Store),
	}

	for _, s := range stores {
		r.add(s)
	}

	if r.unknown == nil {
		r.add(UnknownStore())
	}

	return r
}

// UnknownStore returns the sentinel record for unmatched offers.
func UnknownStore() *domain.Store {
	return &domain.Store{
		ID:               domain.UnknownStoreID,
		Name:             "Unknown store",
		Website:          "https://couponify.com",
		Domains:          []string{"couponify.com"},
		Country:          "US",
		PopularityWeight: 1,
		Categories:       []string{"Home"},
		Aliases:          []string{"unknown"},
	}
}

// Add registers a store at runtime, for stores promoted from approved
// suggestions.
func (r *Registry) Add(s *domain.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(s)
}

func (r *Registry) add(s *domain.Store) {
	r.byID[s.ID] = s
	for _, d := range s.Domains {
		if d != "" {
			r.byDomain[strings.ToLower(d)] = s
		}
	}

	if s.ID == domain.UnknownStoreID {
		r.unknown = s
		return
	}

	aliases := make([]string, 0, len(s.Aliases))
	for _, a := range s.Aliases {
		if n := normalizeHint(a); n != "" {
			aliases = append(aliases, n)
		}
	}
	r.indexed = append(r.indexed, indexedStore{
		store:          s,
		normalizedName: normalizeHint(s.Name),
		aliases:        aliases,
	})
}

// ByID looks up a store. Returns nil when absent.
func (r *Registry) ByID(id string) *domain.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Unknown returns the sentinel store.
func (r *Registry) Unknown() *domain.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unknown
}

// All returns every store including the sentinel, sorted by descending
// popularity.
func (r *Registry) All() []*domain.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stores := make([]*domain.Store, 0, len(r.byID))
	for _, s := range r.byID {
		stores = append(stores, s)
	}
	sort.Slice(stores, func(i, j int) bool {
		if stores[i].PopularityWeight != stores[j].PopularityWeight {
			return stores[i].PopularityWeight > stores[j].PopularityWeight
		}
		return stores[i].ID < stores[j].ID
	})
	return stores
}

// Popularity returns the store's popularity weight, zero when unknown.
func (r *Registry) Popularity(storeID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.byID[storeID]; ok {
		return s.PopularityWeight
	}
	return 0
}

// Resolve matches a free-form hint and/or a link against the catalog.
// Direct hint matches win, then domain matches, then a scored pass over
// every store; nil means nothing matched at all.
func (r *Registry) Resolve(hint, link string) *domain.Store {
	if hint == "" && link == "" {
		return nil
	}

	normalizedHint := normalizeHint(hint)
	domainHint := ""
	if link != "" {
		domainHint = normalize.ExtractDomain(link)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if normalizedHint != "" {
		for _, idx := range r.indexed {
			if idx.matchesHintDirectly(normalizedHint) {
				return idx.store
			}
		}
	}

	if domainHint != "" {
		for _, idx := range r.indexed {
			if matchesAnyDomain(idx.store.Domains, domainHint) {
				return idx.store
			}
		}
	}

	return r.resolveScored(normalizedHint, domainHint)
}

func (idx *indexedStore) matchesHintDirectly(normalizedHint string) bool {
	for _, alias := range idx.aliases {
		if alias == normalizedHint {
			return true
		}
	}
	if idx.normalizedName == normalizedHint {
		return true
	}
	return strings.Contains(idx.normalizedName, normalizedHint) ||
		strings.Contains(normalizedHint, idx.normalizedName)
}

func matchesDomain(storeDomain, domainHint string) bool {
	d := strings.ToLower(storeDomain)
	return d == domainHint || strings.HasSuffix(d, domainHint)
}

func matchesAnyDomain(storeDomains []string, domainHint string) bool {
	for _, d := range storeDomains {
		if matchesDomain(d, domainHint) {
			return true
		}
	}
	return false
}

func keywordBoost(storeID, normalizedHint string) int {
	if normalizedHint == "" {
		return 0
	}
	boost := 0
	for _, intent := range keywordIntentBoosts {
		targeted := false
		for _, id := range intent.targetIDs {
			if id == storeID {
				targeted = true
				break
			}
		}
		if !targeted {
			continue
		}
		for _, kw := range intent.keywords {
			if strings.Contains(normalizedHint, kw) {
				boost += intent.boost
				break
			}
		}
	}
	return boost
}

func (r *Registry) resolveScored(normalizedHint, domainHint string) *domain.Store {
	var best *domain.Store
	bestScore := 0

	for _, idx := range r.indexed {
		score := idx.store.PopularityWeight
		matched := false

		if normalizedHint != "" {
			for _, alias := range idx.aliases {
				if alias == normalizedHint {
					score += aliasExactBoost
					matched = true
					break
				}
			}
			if idx.normalizedName == normalizedHint {
				score += nameExactBoost
				matched = true
			}
			if strings.Contains(idx.normalizedName, normalizedHint) ||
				strings.Contains(normalizedHint, idx.normalizedName) {
				score += containmentBoost
				matched = true
			}
			for _, alias := range idx.aliases {
				if strings.Contains(normalizedHint, alias) {
					score += hintContainsBoost
					matched = true
					break
				}
			}
		}

		if domainHint != "" && matchesAnyDomain(idx.store.Domains, domainHint) {
			score += domainBoost
			matched = true
		}

		if boost := keywordBoost(idx.store.ID, normalizedHint); boost > 0 {
			score += boost
			matched = true
		}

		if matched && score > bestScore {
			bestScore = score
			best = idx.store
		}
	}

	return best
}
