package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"github.com/vidloop/feedplay/internal/model"
)

// Timeout constants
const (
	DefaultFetchTimeout = 60 * time.Second
)

// URL parameters and templates
const (
	PlaylistParam           = "list="
	ParamSeparator          = "&"
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// PlaylistSource builds feed descriptors from a YouTube playlist. It is one
// of the content-descriptor providers the engine can be fed from; the engine
// itself never fetches anything.
type PlaylistSource struct {
	timeout time.Duration
}

// NewPlaylistSource creates a playlist source with the default fetch timeout
func NewPlaylistSource() *PlaylistSource {
	return &PlaylistSource{timeout: DefaultFetchTimeout}
}

// SetTimeout sets the timeout for fetch operations
func (ps *PlaylistSource) SetTimeout(timeout time.Duration) {
	ps.timeout = timeout
}

// FetchDescriptors resolves the playlist and maps each entry to a content
// descriptor ordered by playlist position.
func (ps *PlaylistSource) FetchDescriptors(ctx context.Context, url string) ([]model.ContentDescriptor, error) {
	if !ps.isValidPlaylistURL(url) {
		return nil, fmt.Errorf("invalid playlist URL: %s", url)
	}
	playlistID := ps.extractPlaylistID(url)
	if playlistID == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", url)
	}

	ctx, cancel := context.WithTimeout(ctx, ps.timeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	descriptors := make([]model.ContentDescriptor, 0, len(items))
	for i, it := range items {
		descriptors = append(descriptors, model.ContentDescriptor{
			ID:            it.VideoID,
			SourceURI:     fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
			PositionIndex: i,
		})
	}
	return descriptors, nil
}

// isValidPlaylistURL checks if the URL carries a playlist parameter
func (ps *PlaylistSource) isValidPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistParam)
}

// extractPlaylistID extracts the playlist ID from various URL formats
func (ps *PlaylistSource) extractPlaylistID(url string) string {
	if !strings.Contains(url, PlaylistParam) {
		return ""
	}
	parts := strings.Split(url, PlaylistParam)
	if len(parts) < 2 {
		return ""
	}
	playlistPart := parts[1]
	if strings.Contains(playlistPart, ParamSeparator) {
		playlistPart = strings.Split(playlistPart, ParamSeparator)[0]
	}
	return playlistPart
}
