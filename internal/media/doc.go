package media

// Package media defines the boundary to the platform media engine: the
// Provider interface for acquiring and releasing decode/render sessions and
// the opaque Handle those sessions are driven through. It also ships
// SimProvider, a simulated engine used by the demo apps and tests.
