package engine

import "testing"

func TestSourceName(t *testing.T) {
	tests := []struct {
		name string
		url  string
		meta SourceMeta
		want string
	}{
		{"known domain", "https://www.nytimes.com/2026/03/01/tech/ai.html", SourceMeta{}, "The New York Times"},
		{"known domain beats page title", "https://techcrunch.com/2026/01/01/startup/", SourceMeta{PageTitle: "Some Startup Raised Money"}, "TechCrunch"},
		{"youtube without channel", "https://www.youtube.com/watch?v=abc123def45", SourceMeta{}, "YouTube"},
		{"youtube channel wins", "https://www.youtube.com/watch?v=abc123def45", SourceMeta{ChannelName: "Lex Fridman Podcast"}, "Lex Fridman"},
		{"short youtube host", "https://youtu.be/abc123def45", SourceMeta{ChannelName: "Acquired"}, "Acquired"},
		{"substack subdomain", "https://platformer.substack.com/p/some-post", SourceMeta{}, "Platformer"},
		{"hyphenated substack", "https://machine-learning-weekly.substack.com/p/issue-5", SourceMeta{}, "Machine Learning Weekly"},
		{"beehiiv subdomain", "https://thedeepview.beehiiv.com/p/edition", SourceMeta{}, "Thedeepview"},
		{"channel name suffix stripped", "https://example-podcasts.com/ep/12", SourceMeta{ChannelName: "Hard Fork Podcast"}, "Hard Fork"},
		{"possessive suffix stripped", "https://example.org/posts/1", SourceMeta{ChannelName: "Lenny's Newsletter"}, "Lenny"},
		{"email newsletter suffix", "https://example.org/posts/2", SourceMeta{ChannelName: "The Pragmatic Engineer Email Newsletter"}, "The Pragmatic Engineer"},
		{"bare domain fallback", "https://www.my-cool-blog.com/posts/hello", SourceMeta{}, "My Cool Blog"},
		{"two level tld", "https://news.example.co.uk/story", SourceMeta{}, "Example"},
		{"empty url", "", SourceMeta{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceName(tt.url, tt.meta); got != tt.want {
				t.Errorf("SourceName(%q, %+v) = %q, want %q", tt.url, tt.meta, got, tt.want)
			}
		})
	}
}

func TestStripSourceSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Stratechery Newsletter", "Stratechery"},
		{"Acquired Podcast", "Acquired"},
		{"Newsletter", "Newsletter"}, // nothing left after stripping, keep as-is
		{"Plain Name", "Plain Name"},
	}
	for _, tt := range tests {
		if got := stripSourceSuffix(tt.in); got != tt.want {
			t.Errorf("stripSourceSuffix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBareDomainName(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"example.com", "Example"},
		{"my-cool-blog.com", "My Cool Blog"},
		{"news.example.co.uk", "Example"},
		{"blog.some_site.io", "Some Site"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := bareDomainName(tt.host); got != tt.want {
			t.Errorf("bareDomainName(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
