package normalize

import "testing"

func TestDedupeKey(t *testing.T) {
	base := DedupeKey("nike", "SAVE20", "https://nike.com/sale", "20% off shoes")

	t.Run("stable across calls", func(t *testing.T) {
		if again := DedupeKey("nike", "SAVE20", "https://nike.com/sale", "20% off shoes"); again != base {
			t.Error("same inputs produced different keys")
		}
	})

	t.Run("code case insensitive", func(t *testing.T) {
		if got := DedupeKey("nike", "save20", "https://nike.com/sale", "20% off shoes"); got != base {
			t.Error("lowercased code changed the key")
		}
	})

	t.Run("title whitespace and case insensitive", func(t *testing.T) {
		if got := DedupeKey("nike", "SAVE20", "https://nike.com/sale", "  20%  OFF shoes "); got != base {
			t.Error("title normalization did not apply")
		}
	})

	t.Run("different store differs", func(t *testing.T) {
		if got := DedupeKey("adidas", "SAVE20", "https://nike.com/sale", "20% off shoes"); got == base {
			t.Error("different store collided")
		}
	})

	t.Run("codeless offers do not collide with coded ones", func(t *testing.T) {
		coded := DedupeKey("nike", "SAVE20", "https://nike.com/sale", "sale")
		codeless := DedupeKey("nike", "", "https://nike.com/sale", "sale")
		if coded == codeless {
			t.Error("codeless key collided with coded key")
		}
	})
}
