package platform

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vidloop/feedplay/internal/model"
)

// Manifest is a declarative feed description loaded from a TOML file
type Manifest struct {
	Title string         `toml:"title"`
	Items []ManifestItem `toml:"items"`
}

// ManifestItem describes one feed entry
type ManifestItem struct {
	ID       string `toml:"id"`
	Source   string `toml:"source"`
	Duration string `toml:"duration"` // optional Go duration string, e.g. "23s"
	Position *int   `toml:"position"` // optional, defaults to list order
}

// LoadManifest reads and parses a feed manifest file
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(m.Items) == 0 {
		return nil, fmt.Errorf("manifest %s contains no items", path)
	}
	return &m, nil
}

// Descriptors converts the manifest into ordered content descriptors.
// Items without an explicit position take their list order.
func (m *Manifest) Descriptors() ([]model.ContentDescriptor, error) {
	seen := make(map[string]bool, len(m.Items))
	out := make([]model.ContentDescriptor, 0, len(m.Items))

	for i, item := range m.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("item %d: missing id", i)
		}
		if item.Source == "" {
			return nil, fmt.Errorf("item %q: missing source", item.ID)
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = true

		var hint time.Duration
		if item.Duration != "" {
			d, err := time.ParseDuration(item.Duration)
			if err != nil {
				return nil, fmt.Errorf("item %q: invalid duration %q", item.ID, item.Duration)
			}
			hint = d
		}

		position := i
		if item.Position != nil {
			position = *item.Position
		}

		out = append(out, model.ContentDescriptor{
			ID:            item.ID,
			SourceURI:     item.Source,
			DurationHint:  hint,
			PositionIndex: position,
		})
	}
	return out, nil
}
