// Package repositories implements the entity store on SQLite.
//
// The default database is ":memory:", so the store lives exactly as long as the process; pointing the
// configured path at a file makes it durable without code changes.
//
// Key Implementations:
//   - [ArtistRepository] : Accounts keyed by email, OTP challenge state, follower and like sets
//   - [SongRepository] : Songs listed most recent first, filterable by author, category and text
//   - [AlbumRepository] : Albums and their ordered, loosely referenced track lists
//   - [Store] : Aggregate built once at startup and handed to HTTP handlers
//
// Absence is reported with errors wrapping [shared.ErrNotFound]; duplicate registrations wrap [shared.ErrConflict].
//
// Sequence numbers provide stable insertion ordering independent of IDs and timestamps.
// [NextSequence] increments per-table counters inside the inserting transaction.
package repositories
