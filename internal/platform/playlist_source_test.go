package platform

import (
	"context"
	"testing"
	"time"
)

func TestIsValidPlaylistURL(t *testing.T) {
	ps := NewPlaylistSource()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{
			name:     "valid playlist URL",
			url:      "https://www.youtube.com/playlist?list=PLrAXtmRdnEQy6nuLMt9H1mu_1D-Of3Czb",
			expected: true,
		},
		{
			name:     "watch URL with list parameter",
			url:      "https://www.youtube.com/watch?v=abc123&list=PLrAXtmRdnEQy6nuLMt9H1mu_1D-Of3Czb",
			expected: true,
		},
		{
			name:     "plain video URL",
			url:      "https://www.youtube.com/watch?v=abc123",
			expected: false,
		},
		{
			name:     "empty URL",
			url:      "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ps.isValidPlaylistURL(tt.url); got != tt.expected {
				t.Errorf("isValidPlaylistURL(%q) = %v, expected %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestExtractPlaylistID(t *testing.T) {
	ps := NewPlaylistSource()

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "playlist URL",
			url:      "https://www.youtube.com/playlist?list=PLrAXtmRdnEQy6nuLMt9H1mu_1D-Of3Czb",
			expected: "PLrAXtmRdnEQy6nuLMt9H1mu_1D-Of3Czb",
		},
		{
			name:     "list parameter followed by others",
			url:      "https://www.youtube.com/watch?v=abc123&list=PLtest&index=2",
			expected: "PLtest",
		},
		{
			name:     "no list parameter",
			url:      "https://www.youtube.com/watch?v=abc123",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ps.extractPlaylistID(tt.url); got != tt.expected {
				t.Errorf("extractPlaylistID(%q) = %q, expected %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestSetTimeout(t *testing.T) {
	ps := NewPlaylistSource()
	if ps.timeout != DefaultFetchTimeout {
		t.Errorf("default timeout = %s, expected %s", ps.timeout, DefaultFetchTimeout)
	}
	ps.SetTimeout(5 * time.Second)
	if ps.timeout != 5*time.Second {
		t.Errorf("timeout = %s, expected 5s", ps.timeout)
	}
}

func TestFetchDescriptorsRejectsInvalidURL(t *testing.T) {
	ps := NewPlaylistSource()
	if _, err := ps.FetchDescriptors(context.Background(), "https://www.youtube.com/watch?v=abc123"); err == nil {
		t.Error("expected error for URL without playlist parameter")
	}
}
