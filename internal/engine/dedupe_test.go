package engine

import (
	"testing"
	"time"

	"github.com/gkotak/automate-life-sub001/internal/records"
)

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "ai engineering 101", "ai engineering 101", 1},
		{"both empty", "", "", 0},
		{"one empty", "something", "", 0},
		{"disjoint", "aaaa", "bbbb", 0},
		{"exact boundary", "abcdefghijklmnopqrst", "abcdefghijklmnopqxyz", 0.85}, // LCS 17, 2*17/40
		{"below boundary", "abcdefghijklmnopqrst", "abcdefghijklmnopwxyz", 0.80}, // LCS 16, 2*16/40
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("TitleSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTitleSimilarityMonotone(t *testing.T) {
	base := "abcdef"
	s1 := TitleSimilarity(base, "abcdef")
	s2 := TitleSimilarity(base, "abcdeX")
	s3 := TitleSimilarity(base, "abXXXX")
	if !(s1 >= s2 && s2 >= s3) {
		t.Errorf("similarity not monotone in edit distance: %v, %v, %v", s1, s2, s3)
	}
}

func TestTitleSimilaritySymmetric(t *testing.T) {
	a, b := "deep dive into go generics", "go generics deep dive"
	if TitleSimilarity(a, b) != TitleSimilarity(b, a) {
		t.Errorf("similarity not symmetric")
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCompareSubmission(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
		rec  records.ProcessingRecord
		tol  int
		want MatchDecision
	}{
		{
			name: "same title different punctuation is strong",
			sub:  Submission{URL: "https://a.example.com/1", Title: "AI Engineering 101: Getting Started!"},
			rec:  records.ProcessingRecord{URL: "https://b.example.com/2", Title: "AI engineering 101 — getting started"},
			tol:  1,
			want: MatchStrong,
		},
		{
			name: "same url always strong despite different titles",
			sub:  Submission{URL: "https://www.example.com/post/?utm_source=tw", Title: "Completely different"},
			rec:  records.ProcessingRecord{URL: "http://example.com/post", Title: "Nothing alike at all"},
			tol:  1,
			want: MatchStrong,
		},
		{
			name: "similarity exactly at strong threshold is strong",
			sub:  Submission{URL: "https://a.example.com/1", Title: "abcdefghijklmnopqxyz"},
			rec:  records.ProcessingRecord{URL: "https://b.example.com/2", Title: "abcdefghijklmnopqrst"}, // LCS 17, sim 0.85
			tol:  1,
			want: MatchStrong,
		},
		{
			name: "just below strong threshold outside tolerance is no match",
			sub:  Submission{URL: "https://a.example.com/1", Title: "abcdefghijklmnopwxyz", PublishedAt: date(2026, 3, 10)},
			rec:  records.ProcessingRecord{URL: "https://b.example.com/2", Title: "abcdefghijklmnopqrst", PublishedAt: date(2026, 3, 12)}, // sim 0.80, delta 2
			tol:  1,
			want: MatchNone,
		},
		{
			name: "mid similarity with close dates is weak",
			sub:  Submission{URL: "https://a.example.com/1", Title: "abcdefghijklmnopwxyz", PublishedAt: date(2026, 3, 10)},
			rec:  records.ProcessingRecord{URL: "https://b.example.com/2", Title: "abcdefghijklmnopqrst", PublishedAt: date(2026, 3, 11)},
			tol:  1,
			want: MatchWeak,
		},
		{
			name: "mid similarity with distant dates is no match",
			sub:  Submission{URL: "https://a.example.com/1", Title: "abcdefghijklmnopwxyz", PublishedAt: date(2026, 3, 10)},
			rec:  records.ProcessingRecord{URL: "https://b.example.com/2", Title: "abcdefghijklmnopqrst", PublishedAt: date(2026, 3, 14)},
			tol:  1,
			want: MatchNone,
		},
		{
			name: "mid similarity without dates is no match",
			sub:  Submission{URL: "https://a.example.com/1", Title: "abcdefghijklmnopwxyz"},
			rec:  records.ProcessingRecord{URL: "https://b.example.com/2", Title: "abcdefghijklmnopqrst"},
			tol:  1,
			want: MatchNone,
		},
		{
			name: "unrelated titles no match",
			sub:  Submission{URL: "https://a.example.com/1", Title: "Cooking with cast iron", PublishedAt: date(2026, 3, 10)},
			rec:  records.ProcessingRecord{URL: "https://b.example.com/2", Title: "Kubernetes networking internals", PublishedAt: date(2026, 3, 10)},
			tol:  1,
			want: MatchNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := CompareSubmission(tt.sub, tt.rec, tt.tol)
			if v.Decision != tt.want {
				t.Errorf("decision = %s (sim %.3f), want %s", v.Decision, v.Similarity, tt.want)
			}
		})
	}
}

func TestCompareSubmissionVerdictFields(t *testing.T) {
	sub := Submission{URL: "https://a.example.com/1", Title: "One", PublishedAt: date(2026, 5, 1)}
	rec := records.ProcessingRecord{URL: "https://b.example.com/2", Title: "Two", PublishedAt: date(2026, 5, 4)}
	v := CompareSubmission(sub, rec, 1)
	if v.RecordURL != rec.URL || v.RecordTitle != rec.Title {
		t.Errorf("verdict does not carry record identity: %+v", v)
	}
	if v.DateDeltaDays == nil || *v.DateDeltaDays != 3 {
		t.Errorf("date delta = %v, want 3", v.DateDeltaDays)
	}
}

func TestResolveDuplicates(t *testing.T) {
	sub := Submission{URL: "https://a.example.com/new", Title: "AI Engineering 101: Getting Started", PublishedAt: date(2026, 3, 10)}

	t.Run("no candidates proceeds", func(t *testing.T) {
		rep := ResolveDuplicates(sub, nil, 1)
		if rep.Recommendation != RecommendProceed {
			t.Errorf("recommendation = %s, want proceed", rep.Recommendation)
		}
	})

	t.Run("strong match beats weak", func(t *testing.T) {
		candidates := []records.ProcessingRecord{
			{URL: "https://b.example.com/old", Title: "Totally unrelated piece"},
			{URL: "https://c.example.com/dup", Title: "AI Engineering 101 – Getting Started"},
		}
		rep := ResolveDuplicates(sub, candidates, 1)
		if rep.Recommendation != RecommendPromptUser || rep.Confidence != "high" {
			t.Errorf("got %s/%s, want prompt_user/high", rep.Recommendation, rep.Confidence)
		}
		if len(rep.Verdicts) != 2 {
			t.Errorf("verdicts = %d, want 2", len(rep.Verdicts))
		}
	})

	t.Run("weak only is low confidence", func(t *testing.T) {
		weakSub := Submission{URL: "https://a.example.com/new", Title: "abcdefghijklmnopwxyz", PublishedAt: date(2026, 3, 10)}
		candidates := []records.ProcessingRecord{
			{URL: "https://b.example.com/old", Title: "abcdefghijklmnopqrst", PublishedAt: date(2026, 3, 10)},
		}
		rep := ResolveDuplicates(weakSub, candidates, 1)
		if rep.Recommendation != RecommendPromptUser || rep.Confidence != "low" {
			t.Errorf("got %s/%s, want prompt_user/low", rep.Recommendation, rep.Confidence)
		}
	})

	t.Run("no matches proceeds", func(t *testing.T) {
		candidates := []records.ProcessingRecord{
			{URL: "https://b.example.com/old", Title: "An entirely different story", PublishedAt: date(2025, 1, 1)},
		}
		rep := ResolveDuplicates(sub, candidates, 1)
		if rep.Recommendation != RecommendProceed {
			t.Errorf("recommendation = %s, want proceed", rep.Recommendation)
		}
	})
}
