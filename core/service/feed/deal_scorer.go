// Package feed holds the pure scoring model and the seek-pagination planner
// for the deal feed.
package feed

import "time"

// freshnessWindowHours is how long a deal counts as fresh at all.
const freshnessWindowHours = 72.0

// ScoreInput carries everything the scoring model reads. Now is passed
// explicitly so scores are deterministic under test.
type ScoreInput struct {
	TrustWeight     float64
	CreatedAt       time.Time
	HasCode         bool
	Consensus       int
	VotesWorked     int
	VotesFailed     int
	StorePopularity int
	CopyCount       int
	SaveCount       int
	ReportCount     int
	IsUnknownStore  bool
	Now             time.Time
}

// ScoreResult is the recomputed score set for a coupon.
type ScoreResult struct {
	ConfidenceScore   float64
	HotScore          float64
	VerifiedScore     float64
	ConfidenceReasons []string
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ComputeScores derives confidence, hot, and verified scores from the
// input signals. It performs no I/O.
func ComputeScores(input ScoreInput) ScoreResult {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	hoursOld := now.Sub(input.CreatedAt).Hours()
	if hoursOld < 0 {
		hoursOld = 0
	}
	freshness := clamp((freshnessWindowHours-hoursOld)/freshnessWindowHours, 0, 1)

	codeBoost := 0.0
	if input.HasCode {
		codeBoost = 0.1
	}
	storeBoost := clamp(float64(input.StorePopularity)/150, 0, 0.25)
	engagementBoost := clamp(float64(input.CopyCount+input.SaveCount)/40, 0, 0.15)
	reportPenalty := clamp(float64(input.ReportCount)*0.08, 0, 0.3)
	unknownPenalty := 0.0
	if input.IsUnknownStore {
		unknownPenalty = 0.25
	}
	consensusBoost := clamp(float64(input.Consensus)*0.02, 0, 0.08)

	baseConfidence := clamp(
		input.TrustWeight*0.55+
			freshness*0.2+
			codeBoost+
			storeBoost+
			engagementBoost+
			consensusBoost-
			reportPenalty-
			unknownPenalty,
		0, 1)

	var reasons []string
	if freshness > 0.6 {
		reasons = append(reasons, "Fresh deal")
	}
	if codeBoost > 0 {
		reasons = append(reasons, "Code available")
	}
	if storeBoost > 0.1 {
		reasons = append(reasons, "Popular store")
	}
	if engagementBoost > 0.05 {
		reasons = append(reasons, "High engagement")
	}
	if reportPenalty > 0.15 {
		reasons = append(reasons, "Community reports")
	}
	if unknownPenalty > 0 {
		reasons = append(reasons, "Unknown store")
	}

	confidenceScore := baseConfidence * 100

	hotScore := clamp(
		baseConfidence*65+
			freshness*30+
			float64(input.CopyCount)*0.8+
			float64(input.SaveCount)*0.6-
			reportPenalty*20,
		0, 100)

	verifiedRatio := 0.0
	if totalVotes := input.VotesWorked + input.VotesFailed; totalVotes > 0 {
		verifiedRatio = float64(input.VotesWorked) / float64(totalVotes)
	}
	verifiedScore := clamp(verifiedRatio*100+consensusBoost*50, 0, 100)

	return ScoreResult{
		ConfidenceScore:   confidenceScore,
		HotScore:          hotScore,
		VerifiedScore:     verifiedScore,
		ConfidenceReasons: reasons,
	}
}
