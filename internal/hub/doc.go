// Package hub implements the in-process publish/subscribe hub that fans
// ingested log records out to live stream sessions. The hub is keyed by
// project: a record published for one project is delivered only to listeners
// registered for that project. It is single-process by design; multiple
// server instances do not share subscriptions.
package hub
