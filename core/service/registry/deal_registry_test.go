package registry

import (
	"testing"

	"deal_server/core/domain"
)

func testRegistry() *Registry {
	return New([]*domain.Store{
		{ID: "nike", Name: "Nike", Domains: []string{"nike.com", "nike.co.uk"}, PopularityWeight: 90, Aliases: []string{"nike store"}},
		{ID: "sephora", Name: "Sephora", Domains: []string{"sephora.com"}, PopularityWeight: 80},
		{ID: "h-and-m", Name: "H&M", Domains: []string{"hm.com"}, PopularityWeight: 70},
	})
}

func TestResolve(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		name string
		hint string
		link string
		want string // expected store ID, "" means nil
	}{
		{"exact name", "Nike", "", "nike"},
		{"case insensitive", "NIKE", "", "nike"},
		{"alias", "Nike Store", "", "nike"},
		{"ampersand normalized", "H&M", "", "h-and-m"},
		{"domain from link", "", "https://www.nike.com/sale?promo=1", "nike"},
		{"secondary domain from link", "", "https://www.nike.co.uk/sale", "nike"},
		{"hint wins over link", "Sephora", "https://www.nike.com/sale", "sephora"},
		{"keyword intent", "best mascara deals this week", "", "sephora"},
		{"nothing matches", "completely unrelated shop", "", ""},
		{"empty inputs", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.hint, tt.link)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Resolve(%q, %q) = %q, want nil", tt.hint, tt.link, got.ID)
				}
				return
			}
			if got == nil {
				t.Fatalf("Resolve(%q, %q) = nil, want %q", tt.hint, tt.link, tt.want)
			}
			if got.ID != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.hint, tt.link, got.ID, tt.want)
			}
		})
	}
}

func TestUnknownSentinel(t *testing.T) {
	r := testRegistry()

	u := r.Unknown()
	if u == nil || u.ID != domain.UnknownStoreID {
		t.Fatalf("Unknown() = %+v", u)
	}
	if !u.IsUnknown() {
		t.Error("sentinel store should report IsUnknown")
	}
}

func TestPopularity(t *testing.T) {
	r := testRegistry()

	if got := r.Popularity("nike"); got != 90 {
		t.Errorf("Popularity(nike) = %d, want 90", got)
	}
	if got := r.Popularity("no-such-store"); got != 0 {
		t.Errorf("Popularity(no-such-store) = %d, want 0", got)
	}
}

func TestAddRuntimeStore(t *testing.T) {
	r := testRegistry()

	r.Add(&domain.Store{
		ID:               "glossier",
		Name:             "Glossier",
		Domains:          []string{"glossier.com"},
		PopularityWeight: 10,
		Aliases:          []string{"glossier"},
	})

	if got := r.ByID("glossier"); got == nil {
		t.Fatal("added store not found by ID")
	}
	if got := r.Resolve("Glossier", ""); got == nil || got.ID != "glossier" {
		t.Error("added store not resolvable by name")
	}
	if got := r.Resolve("", "https://www.glossier.com/promo"); got == nil || got.ID != "glossier" {
		t.Error("added store not resolvable by domain")
	}
	if got := r.Popularity("glossier"); got != 10 {
		t.Errorf("Popularity(glossier) = %d, want 10", got)
	}
}
