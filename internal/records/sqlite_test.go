package records

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *SQLiteSource {
	t.Helper()
	src, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestSQLiteAddAndCandidates(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()

	published := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	recs := []ProcessingRecord{
		{Title: "Episode 12", URL: "https://pod.example.com/ep/12", PublishedAt: &published, Source: "Example Podcast"},
		{Title: "Episode 11", URL: "https://pod.example.com/ep/11", Source: "Example Podcast"},
		{Title: "Unrelated Post", URL: "https://blog.example.org/post", Source: "Example Blog"},
	}
	keys := []string{"pod.example.com/ep/12", "pod.example.com/ep/11", "blog.example.org/post"}
	for i, rec := range recs {
		require.NoError(t, src.Add(ctx, rec, keys[i]))
	}

	t.Run("filter by source", func(t *testing.T) {
		got, err := src.Candidates(ctx, "Example Podcast", "no-such-key")
		require.NoError(t, err)
		require.Len(t, got, 2)
		// Newest first.
		require.Equal(t, "Episode 11", got[0].Title)
		require.Equal(t, "Episode 12", got[1].Title)
	})

	t.Run("filter by url key", func(t *testing.T) {
		got, err := src.Candidates(ctx, "Nobody", "blog.example.org/post")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "Unrelated Post", got[0].Title)
	})

	t.Run("published date round-trips", func(t *testing.T) {
		got, err := src.Candidates(ctx, "Example Podcast", "")
		require.NoError(t, err)
		var ep12 *ProcessingRecord
		for i := range got {
			if got[i].Title == "Episode 12" {
				ep12 = &got[i]
			}
		}
		require.NotNil(t, ep12)
		require.NotNil(t, ep12.PublishedAt)
		require.True(t, ep12.PublishedAt.Equal(published))
	})

	t.Run("nil date stays nil", func(t *testing.T) {
		got, err := src.Candidates(ctx, "Nobody", "pod.example.com/ep/11")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Nil(t, got[0].PublishedAt)
	})

	t.Run("no matches", func(t *testing.T) {
		got, err := src.Candidates(ctx, "Nobody", "nothing")
		require.NoError(t, err)
		require.Empty(t, got)
	})
}
