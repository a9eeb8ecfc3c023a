// Package store provides storage and pub/sub functionality for site
// status snapshots.
//
// This package is internal to cookieprof and manages the in-memory
// storage of the most recent per-site summaries. It implements a
// publish-subscribe pattern so the terminal display can redraw after
// every hit.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [SiteStatus]: Storage representation of a site's current status
//
// The store is designed for concurrent access with proper synchronization.
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the system).
//
// Users of the cookieprof library should not need to interact with this
// package directly. Storage is managed internally by the Profiler.
package store
