package engine

import (
	"math"
	"time"
)

// --- Classification types ---

// ContentCategory is the overall kind of content found at a URL.
type ContentCategory string

const (
	CategoryTextOnly ContentCategory = "text_only"
	CategoryAudio    ContentCategory = "audio"
	CategoryVideo    ContentCategory = "video"
	CategoryMixed    ContentCategory = "mixed"
)

// Platform identifies where an embedded media asset is hosted.
type Platform string

const (
	PlatformYouTube      Platform = "youtube"
	PlatformVimeo        Platform = "vimeo"
	PlatformLoom         Platform = "loom"
	PlatformWistia       Platform = "wistia"
	PlatformDailymotion  Platform = "dailymotion"
	PlatformGenericAudio Platform = "generic_audio"
	PlatformGenericVideo Platform = "generic_video"
)

// MediaReference is one media asset detected during classification.
type MediaReference struct {
	Platform  Platform `json:"platform"`
	SourceURL string   `json:"source_url"`
	EmbedID   string   `json:"embed_id,omitempty"`
}

// ContentClassification is the immutable result of classifying one document.
type ContentClassification struct {
	Category   ContentCategory  `json:"category"`
	MediaCount int              `json:"media_count"`
	Signals    []string         `json:"confidence_signals,omitempty"`
	Media      []MediaReference `json:"media,omitempty"`
}

// --- Transcript types ---

// TranscriptEntry is the atomic unit of a transcript. After stitching,
// entries are non-decreasing in Start.
type TranscriptEntry struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// AudioChunkPlan describes how an oversized audio asset is split for
// transcription. Chunks are contiguous and non-overlapping; the final
// chunk may be shorter than ChunkDuration.
type AudioChunkPlan struct {
	TotalDuration float64 `json:"total_duration_seconds"`
	ChunkDuration float64 `json:"chunk_duration_seconds"`
	ChunkCount    int     `json:"chunk_count"`
}

// PlanChunks computes the chunk plan for an audio file of the given
// duration. chunkDur <= 0 falls back to 600s.
func PlanChunks(totalDur, chunkDur float64) AudioChunkPlan {
	if chunkDur <= 0 {
		chunkDur = 600
	}
	count := int(math.Ceil(totalDur / chunkDur))
	if count < 1 {
		count = 1
	}
	return AudioChunkPlan{
		TotalDuration: totalDur,
		ChunkDuration: chunkDur,
		ChunkCount:    count,
	}
}

// --- Duplicate resolution types ---

// MatchDecision classifies how closely a submission matches one prior record.
type MatchDecision string

const (
	MatchNone   MatchDecision = "no_match"
	MatchWeak   MatchDecision = "weak_match"
	MatchStrong MatchDecision = "strong_match"
)

// MatchVerdict is the result of comparing a submission against a single
// ProcessingRecord. Never persisted; recomputed on every check.
type MatchVerdict struct {
	Decision      MatchDecision `json:"decision"`
	Similarity    float64       `json:"similarity_score"`
	DateDeltaDays *int          `json:"date_delta_days,omitempty"`
	RecordURL     string        `json:"record_url"`
	RecordTitle   string        `json:"record_title"`
}

// Recommendation is the aggregate duplicate-check outcome for a submission.
type Recommendation string

const (
	RecommendProceed    Recommendation = "proceed"
	RecommendPromptUser Recommendation = "prompt_user"
	RecommendSkip       Recommendation = "skip_silently"
)

// DuplicateReport carries the per-candidate verdicts plus the aggregate
// recommendation surfaced to the caller.
type DuplicateReport struct {
	Recommendation Recommendation `json:"recommendation"`
	Confidence     string         `json:"confidence,omitempty"` // "high" on strong match, "low" on weak
	Verdicts       []MatchVerdict `json:"verdicts,omitempty"`
}

// --- Pipeline result ---

// TranscriptOrigin records which path produced the transcript.
type TranscriptOrigin string

const (
	OriginPlatform  TranscriptOrigin = "platform_transcript"
	OriginPublished TranscriptOrigin = "published_document"
	OriginAudio     TranscriptOrigin = "audio_transcription"
)

// Submission is one URL handed to the pipeline, with whatever title/date
// the caller already knows. Missing fields are filled from the page.
type Submission struct {
	URL         string     `json:"url"`
	Title       string     `json:"title,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Result is the normalized output handed to downstream consumers.
type Result struct {
	URL            string                `json:"url"`
	Title          string                `json:"title,omitempty"`
	SourceName     string                `json:"source_name"`
	Classification ContentClassification `json:"classification"`
	Duplicate      DuplicateReport       `json:"duplicate"`
	Transcript     []TranscriptEntry     `json:"transcript,omitempty"`
	Origin         TranscriptOrigin      `json:"transcript_origin,omitempty"`
	Body           string                `json:"body,omitempty"` // text_only article body (markdown)
}
