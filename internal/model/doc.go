package model

// Package model defines the domain data structures shared across the engine:
// content descriptors, the playback state enum, playback configuration
// presets, externally visible video state snapshots, and the error taxonomy.
// Structures are designed for direct binding in the UI and explicit state
// transitions.
