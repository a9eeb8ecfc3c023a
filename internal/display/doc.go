// Package display renders the live per-site summaries to a terminal.
//
// The view subscribes to the status store and redraws one plain-text
// block per site after every update, in configuration order. It is the
// render target only: all statistics come pre-rendered from the engine's
// trackers via the store.
package display
