package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, &FetchError{URL: url, Err: errors.New("not found")}
	}
	return &Page{URL: url, Body: []byte(body), ContentType: "text/html"}, nil
}

func TestLocateYouTube(t *testing.T) {
	Init(Config{})
	class := ContentClassification{
		Category: CategoryVideo,
		Media: []MediaReference{
			{Platform: PlatformYouTube, SourceURL: "https://youtu.be/dQw4w9WgXcQ", EmbedID: "dQw4w9WgXcQ"},
		},
	}
	located, err := Locate(context.Background(), class)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(located) != 1 {
		t.Fatalf("located = %d assets", len(located))
	}
	if located[0].VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q", located[0].VideoID)
	}
	if located[0].MediaURL != "" {
		t.Errorf("youtube must not resolve to a download URL, got %q", located[0].MediaURL)
	}
}

func TestLocateGenericAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "4096")
		}
		w.Write(make([]byte, 4096))
	}))
	defer srv.Close()

	Init(Config{})
	class := ContentClassification{
		Category: CategoryAudio,
		Media: []MediaReference{
			{Platform: PlatformGenericAudio, SourceURL: srv.URL + "/ep.mp3"},
		},
	}
	located, err := Locate(context.Background(), class)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if located[0].MediaURL != srv.URL+"/ep.mp3" {
		t.Errorf("MediaURL = %q", located[0].MediaURL)
	}
	if located[0].Size != 4096 {
		t.Errorf("Size = %d, want 4096", located[0].Size)
	}
}

func TestLocateEmbedPlatform(t *testing.T) {
	embedHTML := `{"progressive":[{"url":"https:\/\/cdn.example.com\/video\/720p.mp4?token=abc"}]}`
	Init(Config{
		Fetcher: &fakeFetcher{pages: map[string]string{
			"https://player.vimeo.com/video/98765432": embedHTML,
		}},
	})

	class := ContentClassification{
		Category: CategoryVideo,
		Media: []MediaReference{
			{Platform: PlatformVimeo, SourceURL: "https://vimeo.com/98765432", EmbedID: "98765432"},
		},
	}
	located, err := Locate(context.Background(), class)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if located[0].MediaURL != "https://cdn.example.com/video/720p.mp4?token=abc" {
		t.Errorf("MediaURL = %q", located[0].MediaURL)
	}
}

func TestLocateEmbedNoMediaURL(t *testing.T) {
	Init(Config{
		Fetcher: &fakeFetcher{pages: map[string]string{
			"https://www.loom.com/share/abcdef0123456789": "<html>player shell only</html>",
		}},
	})
	class := ContentClassification{
		Media: []MediaReference{
			{Platform: PlatformLoom, SourceURL: "https://loom.com/share/abcdef0123456789", EmbedID: "abcdef0123456789"},
		},
	}
	_, err := Locate(context.Background(), class)
	var mre *MediaResolutionError
	if !errors.As(err, &mre) {
		t.Fatalf("error = %v, want *MediaResolutionError", err)
	}
}

func TestEmbedPageURL(t *testing.T) {
	tests := []struct {
		ref  MediaReference
		want string
	}{
		{MediaReference{Platform: PlatformVimeo, EmbedID: "123"}, "https://player.vimeo.com/video/123"},
		{MediaReference{Platform: PlatformLoom, EmbedID: "abc"}, "https://www.loom.com/share/abc"},
		{MediaReference{Platform: PlatformWistia, EmbedID: "xyz"}, "https://fast.wistia.net/embed/medias/xyz.json"},
		{MediaReference{Platform: PlatformDailymotion, EmbedID: "x8a"}, "https://www.dailymotion.com/embed/video/x8a"},
	}
	for _, tt := range tests {
		if got := embedPageURL(tt.ref); got != tt.want {
			t.Errorf("embedPageURL(%s) = %q, want %q", tt.ref.Platform, got, tt.want)
		}
	}
}

func TestPickAudioSource(t *testing.T) {
	audio := LocatedMedia{Ref: MediaReference{Platform: PlatformGenericAudio}, MediaURL: "https://cdn.example.com/ep.mp3"}
	video := LocatedMedia{Ref: MediaReference{Platform: PlatformVimeo}, MediaURL: "https://cdn.example.com/v.mp4"}
	yt := LocatedMedia{Ref: MediaReference{Platform: PlatformYouTube}, VideoID: "dQw4w9WgXcQ"}

	t.Run("audio preferred over video", func(t *testing.T) {
		got, ok := PickAudioSource([]LocatedMedia{video, audio})
		if !ok || got.MediaURL != audio.MediaURL {
			t.Errorf("got %+v", got)
		}
	})
	t.Run("video when no audio", func(t *testing.T) {
		got, ok := PickAudioSource([]LocatedMedia{yt, video})
		if !ok || got.MediaURL != video.MediaURL {
			t.Errorf("got %+v", got)
		}
	})
	t.Run("nothing downloadable", func(t *testing.T) {
		if _, ok := PickAudioSource([]LocatedMedia{yt}); ok {
			t.Error("youtube-only media must not yield a download source")
		}
	})
}

func TestPickVideoID(t *testing.T) {
	yt := LocatedMedia{Ref: MediaReference{Platform: PlatformYouTube}, VideoID: "dQw4w9WgXcQ"}
	audio := LocatedMedia{Ref: MediaReference{Platform: PlatformGenericAudio}, MediaURL: "x.mp3"}

	if id, ok := PickVideoID([]LocatedMedia{audio, yt}); !ok || id != "dQw4w9WgXcQ" {
		t.Errorf("PickVideoID = %q, %v", id, ok)
	}
	if _, ok := PickVideoID([]LocatedMedia{audio}); ok {
		t.Error("no video ID expected")
	}
}
