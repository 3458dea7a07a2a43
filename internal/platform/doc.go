package platform

// Package platform contains content-descriptor sources feeding the engine:
// a TOML feed manifest loader for offline and demo use, and a YouTube
// playlist source built on the yt-dlp library that maps playlist entries to
// descriptors.
