// Package tasks runs long catalog jobs outside the request path.
//
// # Bulk Album Export
//
// [BulkExport] writes one Markdown README per album using a fixed worker pool:
//
//  1. A producer feeds album IDs to the workers, throttled by an optional rate limit
//     so an export can run against the same database file as a live server.
//  2. Each worker loads the album, resolves its tracks and renders {dir}/{albumID}/README.md.
//  3. Results keep the order of the requested IDs; failures are recorded per album
//     instead of aborting the run.
//  4. A JSON manifest summarizing the run is written next to the exports.
//
// Cancelling the context stops new albums from being started; albums not reached
// are reported as failed with the context error.
package tasks
