// Package services implements the business logic layer between the HTTP
// handlers and the analysis packages. Handlers stay thin; the rules about
// what a dataset is, which operations may start, and how the definition
// store is persisted all live here.
//
// # Available Services
//
//	- DataService: dataset discovery, table previews and report files
//	- AnalysisService: pipeline runs through the operations manager
//	- EntityService: the entity definition store and on-demand scans
//	- HealthService: readiness and dependency checks
//
// # Common Service Pattern
//
// Services take their dependencies through the constructor and carry a
// *slog.Logger:
//
//	type ServiceName struct {
//	    paths  *config.Paths
//	    logger *slog.Logger
//	}
//
//	func NewServiceName(paths *config.Paths, logger *slog.Logger) *ServiceName {
//	    return &ServiceName{paths: paths, logger: logger}
//	}
//
// Every blocking operation accepts a context.Context for cancellation
// and trace propagation.
//
// # Error Handling
//
// Services return the sentinel errors in errors.go so handlers can map
// them to HTTP status codes with errors.Is:
//
//	reports, err := dataService.ListReports(ctx)
//	if errors.Is(err, services.ErrNoReportsFound) {
//	    // 404
//	}
//
// # Testing
//
// Services are tested against t.TempDir fixtures rather than mocks of
// the filesystem; the WebSocket hub is the one dependency replaced with
// a testify mock.
package services
