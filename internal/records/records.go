// Package records defines the read-only view of previously processed
// content that the duplicate resolver consults. Storage itself is owned
// by the persistence collaborator; this package only ships the interface
// plus a small SQLite reference implementation for standalone runs.
package records

import (
	"context"
	"time"
)

// ProcessingRecord is one previously ingested item.
type ProcessingRecord struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Source      string     `json:"source"`
}

// Source supplies candidate records for a duplicate check, pre-filtered
// by source name or normalized URL key so the resolver only scores a
// small set.
type Source interface {
	Candidates(ctx context.Context, sourceName, urlKey string) ([]ProcessingRecord, error)
}
