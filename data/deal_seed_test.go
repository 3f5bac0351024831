package data

import (
	"strings"
	"testing"
)

func hostOf(website string) string {
	host := strings.TrimPrefix(website, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

func TestLoadSeedStores(t *testing.T) {
	stores, err := LoadSeedStores(hostOf)
	if err != nil {
		t.Fatal(err)
	}
	if len(stores) == 0 {
		t.Fatal("empty catalog")
	}

	byID := make(map[string][]string, len(stores))
	for _, s := range stores {
		if len(s.Domains) == 0 {
			t.Errorf("store %s has no domains", s.ID)
		}
		byID[s.ID] = s.Domains
	}

	// Explicit domains lists are taken verbatim.
	if got := byID["amazon"]; len(got) != 2 || got[0] != "amazon.com" || got[1] != "amzn.to" {
		t.Errorf("amazon domains = %v", got)
	}

	// Entries without one fall back to the website host.
	if got := byID["target"]; len(got) != 1 || got[0] != "target.com" {
		t.Errorf("target domains = %v", got)
	}
}
