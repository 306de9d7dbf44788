// Package reader tracks reading progress for an open paper.
//
// Position updates land in two tiers: a fast local cache written on every
// page turn, and a durable store written after the page has been stable for
// a debounce window. Notes are guarded so that every path out of a session
// persists unsaved edits before it completes.
package reader
