// Package operations provides the step-based execution engine that drives
// log-table analysis runs.
//
// An analysis run is a sequence of steps over one dataset directory:
// ingest loads the tables, profile summarizes their shape, reduce strips
// extraneous columns, identify scans columns for entity patterns,
// signature computes the row-shape census, anomaly scores rows and hourly
// series, and report exports everything. Steps declare dependencies and
// the registry orders them with a topological sort, so a single step can
// run alone as long as its inputs exist.
//
// Core components:
//
// Manager: orchestrates execution with per-step timeouts, retry with
// exponential backoff, dependency skipping on failure, and cancellation.
//
// Step: one unit of work. BaseStep provides the common identity and
// dependency plumbing; concrete steps live in steps.go.
//
// Registry: registration and Kahn-ordered retrieval of steps.
//
// StatusBroadcaster: the single authority for run status, emitting
// complete snapshots over the WebSocket hub.
//
// JobQueue: async execution of runs triggered over HTTP, backed by a
// JobStore and a RunManifest that tracks which data each step produced.
//
// Example:
//
//	manager := operations.NewManager(hub, nil, nil)
//	if err := operations.RegisterPipeline(manager, paths, logger, metrics); err != nil {
//		return err
//	}
//
//	resp, err := manager.Execute(ctx, operations.OperationRequest{
//		Dataset: "prod_logs",
//	})
package operations
