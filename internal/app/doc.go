// Package app wires the application together: configuration, logging,
// OpenTelemetry, the WebSocket hub, the job queue, the analysis services,
// and the chi router with its middleware stack.
//
// NewApplication builds the full dependency graph; Run starts the HTTP
// server and blocks until an interrupt, then shuts everything down in
// reverse order.
package app
