package engine

import (
	"math"

	"github.com/gkotak/automate-life-sub001/internal/records"
)

// Duplicate resolution: fuzzy title/date matching of a new submission
// against previously processed records, run before any transcription
// work so duplicates are rejected cheaply.

// Similarity thresholds for the decision table. Title similarity at or
// above strongMatchThreshold is decisive on its own; the weak band needs
// date corroboration within the configured tolerance.
const (
	strongMatchThreshold = 0.85
	weakMatchThreshold   = 0.55
)

// TitleSimilarity computes an LCS-ratio similarity in [0,1] between two
// already-normalized titles: 2*LCS(a,b) / (len(a)+len(b)) over runes.
// Identical strings score 1, disjoint strings 0, and growing edit
// distance never increases the score.
func TitleSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Single-row LCS to keep memory at O(min side).
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// dateDeltaDays returns the absolute whole-day difference, or nil when
// either date is unknown.
func dateDeltaDays(sub Submission, rec records.ProcessingRecord) *int {
	if sub.PublishedAt == nil || rec.PublishedAt == nil {
		return nil
	}
	delta := int(math.Abs(sub.PublishedAt.Sub(*rec.PublishedAt).Hours()) / 24)
	return &delta
}

// CompareSubmission scores one submission against one prior record.
// A normalized exact-URL match is always strong, independent of title
// similarity. tolDays is the date tolerance for the weak band.
func CompareSubmission(sub Submission, rec records.ProcessingRecord, tolDays int) MatchVerdict {
	sim := TitleSimilarity(NormalizeTitle(sub.Title), NormalizeTitle(rec.Title))
	delta := dateDeltaDays(sub, rec)

	v := MatchVerdict{
		Decision:      MatchNone,
		Similarity:    sim,
		DateDeltaDays: delta,
		RecordURL:     rec.URL,
		RecordTitle:   rec.Title,
	}

	if sub.URL != "" && rec.URL != "" && NormalizeURL(sub.URL) == NormalizeURL(rec.URL) {
		v.Decision = MatchStrong
		return v
	}

	switch {
	case sim >= strongMatchThreshold:
		v.Decision = MatchStrong
	case sim >= weakMatchThreshold && delta != nil && *delta <= tolDays:
		v.Decision = MatchWeak
	}
	return v
}

// ResolveDuplicates compares a submission against every candidate and
// aggregates a recommendation. Both silently skipping and silently
// reprocessing have real cost, so the recommendation is always surfaced:
// any strong match → prompt_user with high confidence, best weak match →
// prompt_user with low confidence, otherwise proceed.
func ResolveDuplicates(sub Submission, candidates []records.ProcessingRecord, tolDays int) DuplicateReport {
	metrics.DuplicateChecks.Add(1)

	report := DuplicateReport{Recommendation: RecommendProceed}
	var anyStrong, anyWeak bool
	for _, rec := range candidates {
		v := CompareSubmission(sub, rec, tolDays)
		report.Verdicts = append(report.Verdicts, v)
		switch v.Decision {
		case MatchStrong:
			anyStrong = true
		case MatchWeak:
			anyWeak = true
		}
	}

	switch {
	case anyStrong:
		report.Recommendation = RecommendPromptUser
		report.Confidence = "high"
	case anyWeak:
		report.Recommendation = RecommendPromptUser
		report.Confidence = "low"
	}
	return report
}
