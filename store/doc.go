// Package store provides file-resident keyed record stores with
// cross-process coordination.
//
// A store keeps records encoded one per line in a plain text file. Every
// operation takes a sibling lock file, reconciles the in-memory cache with
// the file when its mtime or size changed, applies the operation, and for
// mutations rewrites the file atomically. Blank lines and lines starting
// with '#' are tolerated on read and dropped on the next write.
//
// Keyed enforces one record per key; MultiKeyed allows groups of distinct
// records to share a key. Both preserve file order across rewrites.
//
// Handles are safe across processes but not across goroutines: callers
// sharing one handle between goroutines must serialize access themselves.
package store
