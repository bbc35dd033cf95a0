// Package client provides the `logwell logs` command group.
//
// The CLI talks to the Logwell HTTP API to send, query, and live-tail log
// records from a terminal. It is primarily intended for developers and
// operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it defaults
// to http://127.0.0.1:8080 and can be overridden with LOGWELL_HTTP. The API
// key, when the server requires one, is read from LOGWELL_API_KEY.
//
// Usage
//
//	logwell logs send --project demo --message "deploy finished" --level info
//
//	logwell logs list --project demo --limit 50
//	logwell logs list --project demo --cursor CURSOR   # older page
//
//	# Live tail over SSE; reconnects automatically if the stream drops
//	logwell logs tail --project demo
//	logwell logs tail --project demo --filter 'level == "error"'
//	logwell logs tail --project demo --format json
package client
