// Package http contains the chi HTTP handlers for the analysis API.
//
// Each handler owns one slice of the surface and is constructed with the
// service interface it depends on, a logger, and the shared error
// handler:
//
//   - DataHandler: dataset listing, table previews, sheet imports,
//     report downloads
//   - EntityHandler: definition store, on-demand scans, the entity map,
//     hunting queries
//   - SignatureHandler: signature censuses and rare-value mining
//   - AnomalyHandler: isolation forest and seasonal decomposition
//   - OperationsHandler: pipeline runs, snapshots, async jobs
//   - HealthHandler: liveness, readiness and version probes
//
// Handlers expose a Routes() chi.Router constructor and are mounted by
// the application under /api. Errors surface either through the shared
// errors.ErrorHandler or as RFC 7807 problem details, matching the
// style of the service each handler fronts.
package http
