// Package logstore persists ingested log records and serves the paginated
// history queries that back a viewer's initial page load. Live delivery is
// the hub's job; this store only answers "what happened before I connected".
//
// Records are keyed by project and a time-ordered ID, so history reads are a
// single reverse range scan. Values are JSON compressed with s2.
package logstore
