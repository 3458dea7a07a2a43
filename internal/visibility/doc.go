package visibility

// Package visibility converts raw visibility-fraction samples from the
// presentation layer into stable per-item should-play decisions using a
// two-threshold hysteresis, and notifies subscribers only when a decision
// changes. The coordinator never touches media resources; it emits intent.
