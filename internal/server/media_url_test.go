package server

import "testing"

func TestResolveMediaURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		port     int
		blobName string
		want     string
	}{
		{
			name:     "base without port gets default port",
			baseURL:  "http://example.com",
			port:     8095,
			blobName: "abc.png",
			want:     "http://example.com:8095/media/abc.png",
		},
		{
			name:     "base with explicit port is untouched",
			baseURL:  "http://127.0.0.1:9000",
			port:     8095,
			blobName: "abc.png",
			want:     "http://127.0.0.1:9000/media/abc.png",
		},
		{
			name:     "trailing slash is normalized",
			baseURL:  "http://example.com/",
			port:     8095,
			blobName: "x.mp3",
			want:     "http://example.com:8095/media/x.mp3",
		},
		{
			name:     "https scheme colon does not count as port",
			baseURL:  "https://media.example.org",
			port:     443,
			blobName: "v.mp4",
			want:     "https://media.example.org:443/media/v.mp4",
		},
		{
			name:     "zero port appends nothing",
			baseURL:  "http://example.com",
			port:     0,
			blobName: "a.ogg",
			want:     "http://example.com/media/a.ogg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveMediaURL(tt.baseURL, tt.port, tt.blobName)
			if got != tt.want {
				t.Fatalf("ResolveMediaURL(%q, %d, %q) = %q, want %q", tt.baseURL, tt.port, tt.blobName, got, tt.want)
			}
			// The resolver and extractor must round-trip.
			if name := BlobNameFromMediaRef(got); name != tt.blobName {
				t.Fatalf("BlobNameFromMediaRef(%q) = %q, want %q", got, name, tt.blobName)
			}
		})
	}
}

func TestResolveMediaURLIsDeterministic(t *testing.T) {
	first := ResolveMediaURL("http://example.com", 8095, "abc.png")
	second := ResolveMediaURL("http://example.com", 8095, "abc.png")
	if first != second {
		t.Fatalf("resolver must be deterministic: %q vs %q", first, second)
	}
}

func TestBlobNameFromMediaRefEdgeCases(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"http://h:1/media/a.png", "a.png"},
		{"a.png", "a.png"},
		{"", ""},
		{"http://h/media/", "media"},
	}
	for _, tt := range tests {
		if got := BlobNameFromMediaRef(tt.ref); got != tt.want {
			t.Errorf("BlobNameFromMediaRef(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
