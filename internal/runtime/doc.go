// Package runtime wires storage, the pub/sub hub, and configuration into a
// single handle passed into the servers. The hub lives here so it has an
// explicit lifetime instead of being ambient process state.
package runtime
