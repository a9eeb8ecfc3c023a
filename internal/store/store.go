package store

import "time"

// SiteStatus is the stored snapshot of one site's most recent hit.
//
// It is the render-facing representation: the display reads the Summary
// text as-is, the remaining fields exist for logging and filtering. It
// is decoupled from the engine's hit type so the two can evolve
// independently.
type SiteStatus struct {
	// Name is the site's display name.
	Name string

	// URL is the target URL being polled.
	URL string

	// Outcome classifies the most recent hit ("ok", "miss", "stall",
	// "redirect").
	Outcome string

	// Sessioned marks whether the most recent hit came from the
	// session-affine path.
	Sessioned bool

	// LatencyMs is the most recent hit's latency in milliseconds.
	LatencyMs int64

	// HitAt is when the most recent hit was recorded.
	HitAt time.Time

	// Summary is the site's current multi-line statistics block.
	Summary string

	// Error is the transport failure message for misses, nil otherwise.
	Error *string
}

// Store defines the interface for storing and subscribing to site
// status updates.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism lets the terminal display redraw after every hit.
type Store interface {
	// Update stores a new status and notifies all subscribers.
	// The status is keyed by Name, so updates replace previous values.
	Update(status SiteStatus)

	// GetAll returns all currently stored statuses.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []SiteStatus

	// Subscribe returns a channel that receives status updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan SiteStatus

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan SiteStatus)
}
