// Package faction owns faction data: the cache that is the single source
// of truth for metadata, faction indexes, and unit lookups, plus the
// collaborators it loads through (bucket-backed data source, gorm-backed
// local store, zip bundle parser, presigning asset resolver).
//
// # Cache semantics
//
// Metadata loads eagerly at startup. Faction indexes and their embedded
// units load lazily, keyed by the lower-cased faction id with an optional
// @version suffix. For one cache key at most one fetch is in flight:
// concurrent loads share a single data-source call (singleflight) and all
// callers observe the same resolved index. The index map and the unit map
// are committed under one lock acquisition, so a visible index always has
// its units.
//
// Failures are recorded per key and re-thrown to the triggering caller;
// they never crash unrelated lookups and never leave the in-flight set in
// a stuck state. Uploading or deleting a local faction invalidates every
// cached entry for that faction id before metadata refreshes.
package faction
