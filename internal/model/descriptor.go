package model

import "time"

// ContentDescriptor identifies one playable feed item and its position in the
// feed. Descriptors are supplied by the content provider and never mutated by
// the engine; ordering by PositionIndex defines the feed sequence used for
// windowing.
type ContentDescriptor struct {
	ID            string
	SourceURI     string
	DurationHint  time.Duration // zero if unknown
	PositionIndex int
}

// IsZero returns true for the zero-value descriptor (unknown id)
func (cd ContentDescriptor) IsZero() bool {
	return cd.ID == "" && cd.SourceURI == ""
}
