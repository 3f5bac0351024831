package feed

import (
	"math"
	"testing"
	"time"
)

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %f, want %f", name, got, want)
	}
}

func TestComputeScores(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fresh trusted coded deal", func(t *testing.T) {
		got := ComputeScores(ScoreInput{
			TrustWeight: 1.0,
			CreatedAt:   now,
			HasCode:     true,
			Now:         now,
		})
		// 0.55 trust + 0.2 freshness + 0.1 code
		approx(t, "ConfidenceScore", got.ConfidenceScore, 85.0)
		// 0.85*65 + 30 freshness
		approx(t, "HotScore", got.HotScore, 85.25)
		approx(t, "VerifiedScore", got.VerifiedScore, 0)

		wantReasons := map[string]bool{"Fresh deal": true, "Code available": true}
		for _, r := range got.ConfidenceReasons {
			if !wantReasons[r] {
				t.Errorf("unexpected reason %q", r)
			}
			delete(wantReasons, r)
		}
		for r := range wantReasons {
			t.Errorf("missing reason %q", r)
		}
	})

	t.Run("stale unknown store bottoms out", func(t *testing.T) {
		got := ComputeScores(ScoreInput{
			TrustWeight:    0,
			CreatedAt:      now.Add(-100 * time.Hour),
			IsUnknownStore: true,
			Now:            now,
		})
		approx(t, "ConfidenceScore", got.ConfidenceScore, 0)
		approx(t, "HotScore", got.HotScore, 0)

		found := false
		for _, r := range got.ConfidenceReasons {
			if r == "Unknown store" {
				found = true
			}
		}
		if !found {
			t.Error("expected the Unknown store reason")
		}
	})

	t.Run("reports drag confidence down", func(t *testing.T) {
		clean := ComputeScores(ScoreInput{TrustWeight: 0.8, CreatedAt: now, HasCode: true, Now: now})
		reported := ComputeScores(ScoreInput{TrustWeight: 0.8, CreatedAt: now, HasCode: true, ReportCount: 3, Now: now})

		if reported.ConfidenceScore >= clean.ConfidenceScore {
			t.Errorf("reports did not lower confidence: %f >= %f", reported.ConfidenceScore, clean.ConfidenceScore)
		}
		found := false
		for _, r := range reported.ConfidenceReasons {
			if r == "Community reports" {
				found = true
			}
		}
		if !found {
			t.Error("expected the Community reports reason")
		}
	})

	t.Run("engagement raises hot score", func(t *testing.T) {
		quiet := ComputeScores(ScoreInput{TrustWeight: 0.7, CreatedAt: now, HasCode: true, Now: now})
		busy := ComputeScores(ScoreInput{TrustWeight: 0.7, CreatedAt: now, HasCode: true, CopyCount: 20, SaveCount: 10, Now: now})

		if busy.HotScore <= quiet.HotScore {
			t.Errorf("engagement did not raise hot score: %f <= %f", busy.HotScore, quiet.HotScore)
		}
	})

	t.Run("verified score follows vote ratio", func(t *testing.T) {
		got := ComputeScores(ScoreInput{TrustWeight: 0.7, CreatedAt: now, VotesWorked: 3, VotesFailed: 1, Now: now})
		// 0.75 ratio * 100, no consensus boost
		approx(t, "VerifiedScore", got.VerifiedScore, 75.0)
	})

	t.Run("future created at treated as now", func(t *testing.T) {
		got := ComputeScores(ScoreInput{TrustWeight: 0.5, CreatedAt: now.Add(2 * time.Hour), HasCode: true, Now: now})
		fresh := ComputeScores(ScoreInput{TrustWeight: 0.5, CreatedAt: now, HasCode: true, Now: now})
		approx(t, "ConfidenceScore", got.ConfidenceScore, fresh.ConfidenceScore)
	})

	t.Run("scores never exceed 100", func(t *testing.T) {
		got := ComputeScores(ScoreInput{
			TrustWeight:     1.0,
			CreatedAt:       now,
			HasCode:         true,
			Consensus:       10,
			StorePopularity: 200,
			CopyCount:       500,
			SaveCount:       500,
			VotesWorked:     50,
			Now:             now,
		})
		if got.HotScore > 100 || got.VerifiedScore > 100 {
			t.Errorf("scores escaped the cap: hot=%f verified=%f", got.HotScore, got.VerifiedScore)
		}
	})
}
