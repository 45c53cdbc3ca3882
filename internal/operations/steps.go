package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"loglens/internal/anomaly"
	"loglens/internal/config"
	"loglens/internal/entity"
	"loglens/internal/exporter"
	"loglens/internal/infrastructure"
	"loglens/internal/redux"
	"loglens/internal/signature"
	"loglens/internal/tables"
	"loglens/pkg/contracts/domain"
)

// stepDeps holds the shared dependencies every pipeline step needs.
// Metrics may be nil; recording is skipped in that case.
type stepDeps struct {
	paths   *config.Paths
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

func newStepDeps(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) stepDeps {
	if logger == nil {
		logger = slog.Default()
	}
	return stepDeps{paths: paths, logger: logger, metrics: metrics}
}

// RegisterPipeline registers the full analysis pipeline on the manager:
// ingest, profile, reduce, identify, signature, anomaly, report.
func RegisterPipeline(manager *Manager, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) error {
	steps := []Step{
		NewIngestStep(paths, logger, metrics),
		NewProfileStep(paths, logger, metrics),
		NewReduceStep(paths, logger, metrics),
		NewIdentifyStep(paths, logger, metrics),
		NewSignatureStep(paths, logger, metrics),
		NewAnomalyStep(paths, logger, metrics),
		NewReportStep(paths, logger, metrics),
	}
	for _, step := range steps {
		if err := manager.RegisterStep(step); err != nil {
			return err
		}
	}
	return nil
}

// datasetDir resolves the directory the run reads tables from. An explicit
// dataset_dir wins, then a named dataset under the datasets root, then the
// datasets root itself.
func datasetDir(state *OperationState, paths *config.Paths) string {
	if dir := configString(state, ContextKeyDatasetDir, ""); dir != "" {
		return dir
	}
	if dataset := configString(state, ContextKeyDataset, ""); dataset != "" {
		candidate := paths.GetDatasetPath(dataset)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return paths.DatasetsDir
}

// ensureTables returns the loaded tables from the operation context,
// ingesting the dataset directory when a step runs without a prior ingest.
func ensureTables(state *OperationState, paths *config.Paths) ([]*domain.Table, error) {
	if val, ok := state.GetContext(ContextKeyTables); ok {
		if loaded, ok := val.([]*domain.Table); ok && len(loaded) > 0 {
			return loaded, nil
		}
	}

	dir := datasetDir(state, paths)
	loaded, err := tables.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	state.SetContext(ContextKeyTables, loaded)
	state.SetContext(ContextKeyDatasetDir, dir)
	return loaded, nil
}

// reducedOrRaw prefers the reduced tables when the reduce step has run.
func reducedOrRaw(state *OperationState, paths *config.Paths) ([]*domain.Table, error) {
	if val, ok := state.GetContext(ContextKeyReduced); ok {
		if reduced, ok := val.([]*domain.Table); ok && len(reduced) > 0 {
			return reduced, nil
		}
	}
	return ensureTables(state, paths)
}

// IngestStep loads every supported table file from the dataset directory
// into memory for the rest of the pipeline.
type IngestStep struct {
	BaseStep
	deps stepDeps
}

// NewIngestStep creates the dataset ingestion step
func NewIngestStep(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *IngestStep {
	return &IngestStep{
		BaseStep: NewBaseStep(StepIDIngest, StepNameIngest, nil),
		deps:     newStepDeps(paths, logger, metrics),
	}
}

func (s *IngestStep) Validate(state *OperationState) error {
	dir := datasetDir(state, s.deps.paths)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("dataset directory %s not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("dataset path %s is not a directory", dir)
	}
	return nil
}

func (s *IngestStep) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Type: DataTypeDatasetFiles, Location: s.deps.paths.DatasetsDir, MinCount: 1},
	}
}

func (s *IngestStep) CanRun(manifest *RunManifest) bool {
	return manifestSatisfies(manifest, s.RequiredInputs())
}

func (s *IngestStep) Execute(ctx context.Context, state *OperationState) error {
	dir := datasetDir(state, s.deps.paths)
	stepState := state.GetStep(s.ID())

	s.deps.logger.InfoContext(ctx, "ingesting dataset", slog.String("dir", dir))

	loaded, err := tables.LoadDir(dir)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	state.SetContext(ContextKeyTables, loaded)
	state.SetContext(ContextKeyDatasetDir, dir)

	totalRows := 0
	for _, t := range loaded {
		totalRows += t.RowCount
	}

	if s.deps.metrics != nil {
		s.deps.metrics.DatasetsIngested.Add(ctx, 1, metric.WithAttributes(
			attribute.String("dataset", configString(state, ContextKeyDataset, "default")),
		))
	}

	if stepState != nil {
		stepState.SetMetadata("tables", len(loaded))
		stepState.SetMetadata("rows", totalRows)
		stepState.UpdateProgress(100, fmt.Sprintf("Loaded %d tables (%d rows)", len(loaded), totalRows))
	}

	s.deps.logger.InfoContext(ctx, "dataset ingested",
		slog.Int("tables", len(loaded)),
		slog.Int("rows", totalRows))
	return nil
}

// ProfileStep computes fill-pattern profiles for every ingested table.
type ProfileStep struct {
	BaseStep
	deps stepDeps
}

// NewProfileStep creates the table profiling step
func NewProfileStep(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ProfileStep {
	return &ProfileStep{
		BaseStep: NewBaseStep(StepIDProfile, StepNameProfile, []string{StepIDIngest}),
		deps:     newStepDeps(paths, logger, metrics),
	}
}

func (s *ProfileStep) Execute(ctx context.Context, state *OperationState) error {
	loaded, err := ensureTables(state, s.deps.paths)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	stepState := state.GetStep(s.ID())
	profiles := make([]domain.TableProfile, 0, len(loaded))
	for i, t := range loaded {
		select {
		case <-ctx.Done():
			return NewCancellationError(s.ID())
		default:
		}
		profiles = append(profiles, *tables.Profile(t))
		if stepState != nil {
			stepState.UpdateProgress(float64(i+1)/float64(len(loaded))*100,
				fmt.Sprintf("Profiled %s", t.Name))
		}
	}

	state.SetContext(ContextKeyProfiles, profiles)

	s.deps.logger.InfoContext(ctx, "tables profiled", slog.Int("profiles", len(profiles)))
	return nil
}

// ReduceStep drops extraneous columns from each table and records why.
type ReduceStep struct {
	BaseStep
	deps stepDeps
}

// NewReduceStep creates the column reduction step
func NewReduceStep(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ReduceStep {
	return &ReduceStep{
		BaseStep: NewBaseStep(StepIDReduce, StepNameReduce, []string{StepIDProfile}),
		deps:     newStepDeps(paths, logger, metrics),
	}
}

func (s *ReduceStep) reduceOptions(state *OperationState) redux.Options {
	opts := redux.DefaultOptions()
	opts.DropList = configStringSlice(state, "drop_list")
	opts.NameRegexes = configStringSlice(state, "name_regexes")
	opts.EntropyCleanup = configBool(state, "entropy_cleanup", opts.EntropyCleanup)
	opts.EntropyCutoff = configFloat(state, "entropy_cutoff", opts.EntropyCutoff)
	return opts
}

func (s *ReduceStep) Execute(ctx context.Context, state *OperationState) error {
	loaded, err := ensureTables(state, s.deps.paths)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	opts := s.reduceOptions(state)
	stepState := state.GetStep(s.ID())

	reduced := make([]*domain.Table, 0, len(loaded))
	reports := make([]*domain.ReductionReport, 0, len(loaded))
	droppedTotal := 0

	for i, t := range loaded {
		select {
		case <-ctx.Done():
			return NewCancellationError(s.ID())
		default:
		}

		slim, report, err := redux.Reduce(t, opts)
		if err != nil {
			return NewExecutionError(s.ID(), fmt.Errorf("reduce %s: %w", t.Name, err), false)
		}
		reduced = append(reduced, slim)
		reports = append(reports, report)
		droppedTotal += len(report.Dropped)

		if stepState != nil {
			stepState.UpdateProgress(float64(i+1)/float64(len(loaded))*100,
				fmt.Sprintf("Reduced %s (%d columns dropped)", t.Name, len(report.Dropped)))
		}
	}

	state.SetContext(ContextKeyReduced, reduced)
	state.SetContext(ContextKeyReductions, reports)

	if s.deps.metrics != nil && droppedTotal > 0 {
		s.deps.metrics.ColumnsDropped.Add(ctx, int64(droppedTotal))
	}
	if stepState != nil {
		stepState.SetMetadata("columns_dropped", droppedTotal)
	}

	s.deps.logger.InfoContext(ctx, "columns reduced",
		slog.Int("tables", len(reduced)),
		slog.Int("columns_dropped", droppedTotal))
	return nil
}

// IdentifyStep scans reduced tables against the entity definition registry
// and builds the dataset entity map.
type IdentifyStep struct {
	BaseStep
	deps stepDeps
}

// NewIdentifyStep creates the entity identification step
func NewIdentifyStep(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *IdentifyStep {
	return &IdentifyStep{
		BaseStep: NewBaseStep(StepIDIdentify, StepNameIdentify, []string{StepIDReduce}),
		deps:     newStepDeps(paths, logger, metrics),
	}
}

func (s *IdentifyStep) Execute(ctx context.Context, state *OperationState) error {
	tbls, err := reducedOrRaw(state, s.deps.paths)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	registry := entity.NewRegistry()
	if err := registry.LoadJSON(s.deps.paths.GetDefinitionsPath()); err != nil {
		return NewExecutionError(s.ID(), fmt.Errorf("load definitions: %w", err), false)
	}

	opts := entity.DefaultScanOptions()
	opts.SampleSize = configInt(state, "sample_size", opts.SampleSize)
	opts.Partial = configBool(state, "partial", opts.Partial)

	scanner := entity.NewScanner(registry, s.deps.logger)

	start := time.Now()
	matches, err := scanner.ScanDataset(ctx, tbls, opts)
	if err != nil {
		return NewExecutionError(s.ID(), fmt.Errorf("scan dataset: %w", err), false)
	}

	threshold := configFloat(state, "threshold", 0.5)
	assignments := entity.Interpret(matches, registry, threshold)
	entityMap := entity.BuildEntityMap(assignments)

	state.SetContext(ContextKeyMatches, matches)
	state.SetContext(ContextKeyAssignments, assignments)
	state.SetContext(ContextKeyEntityMap, entityMap)

	if s.deps.metrics != nil {
		s.deps.metrics.TablesScanned.Add(ctx, int64(len(tbls)))
		s.deps.metrics.ColumnsMatched.Add(ctx, int64(len(assignments)))
		s.deps.metrics.ScanDuration.Record(ctx, time.Since(start).Seconds())
	}

	if stepState := state.GetStep(s.ID()); stepState != nil {
		stepState.SetMetadata("matches", len(matches))
		stepState.SetMetadata("assignments", len(assignments))
		stepState.UpdateProgress(100, fmt.Sprintf("Identified %d entity columns", len(assignments)))
	}

	s.deps.logger.InfoContext(ctx, "entities identified",
		slog.Int("matches", len(matches)),
		slog.Int("assignments", len(assignments)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// SignatureStep computes the row presence-pattern census for each table.
type SignatureStep struct {
	BaseStep
	deps stepDeps
}

// NewSignatureStep creates the signature census step
func NewSignatureStep(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *SignatureStep {
	return &SignatureStep{
		BaseStep: NewBaseStep(StepIDSignature, StepNameSignature, []string{StepIDIdentify}),
		deps:     newStepDeps(paths, logger, metrics),
	}
}

func (s *SignatureStep) Execute(ctx context.Context, state *OperationState) error {
	tbls, err := reducedOrRaw(state, s.deps.paths)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	stepState := state.GetStep(s.ID())
	sets := make([]*domain.SignatureSet, 0, len(tbls))
	for i, t := range tbls {
		select {
		case <-ctx.Done():
			return NewCancellationError(s.ID())
		default:
		}
		sets = append(sets, signature.Compute(t))
		if stepState != nil {
			stepState.UpdateProgress(float64(i+1)/float64(len(tbls))*100,
				fmt.Sprintf("Computed signatures for %s", t.Name))
		}
	}

	state.SetContext(ContextKeySignatures, sets)

	if s.deps.metrics != nil {
		s.deps.metrics.SignaturesComputed.Add(ctx, int64(len(sets)))
	}

	s.deps.logger.InfoContext(ctx, "signatures computed", slog.Int("tables", len(sets)))
	return nil
}

// AnomalyStep runs the isolation forest over each reduced table and, when
// a timestamp column is available, a seasonal decomposition of the hourly
// event-count series. It depends only on reduce so it can run while the
// identification chain proceeds.
type AnomalyStep struct {
	BaseStep
	deps stepDeps
}

// NewAnomalyStep creates the anomaly detection step
func NewAnomalyStep(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *AnomalyStep {
	return &AnomalyStep{
		BaseStep: NewBaseStep(StepIDAnomaly, StepNameAnomaly, []string{StepIDReduce}),
		deps:     newStepDeps(paths, logger, metrics),
	}
}

func (s *AnomalyStep) forestConfig(state *OperationState) anomaly.ForestConfig {
	cfg := anomaly.DefaultForestConfig()
	cfg.Trees = configInt(state, "trees", cfg.Trees)
	cfg.SampleSize = configInt(state, "forest_sample_size", cfg.SampleSize)
	cfg.Contamination = configFloat(state, "contamination", cfg.Contamination)
	return cfg
}

// timeColumn picks the timestamp column for the series decomposition: the
// configured name if given, otherwise the first time-kind column.
func (s *AnomalyStep) timeColumn(state *OperationState, table *domain.Table) string {
	if name := configString(state, ContextKeyTimeColumn, ""); name != "" {
		if table.ColumnIndex(name) >= 0 {
			return name
		}
		return ""
	}
	for _, col := range table.Columns {
		if col.Kind == domain.ColumnKindTime {
			return col.Name
		}
	}
	return ""
}

func (s *AnomalyStep) Execute(ctx context.Context, state *OperationState) error {
	tbls, err := reducedOrRaw(state, s.deps.paths)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	detector := anomaly.NewDetector(s.deps.logger)
	cfg := s.forestConfig(state)
	seriesCfg := anomaly.DefaultSeriesConfig()
	if method := configString(state, "series_method", ""); method != "" && anomaly.ValidScoreMethod(method) {
		seriesCfg.Method = method
	}
	stepState := state.GetStep(s.ID())

	start := time.Now()
	var forests []*domain.ForestResult
	series := make(map[string]*domain.SeriesDecomposition)
	anomalies := 0

	for i, t := range tbls {
		select {
		case <-ctx.Done():
			return NewCancellationError(s.ID())
		default:
		}

		result, err := detector.DetectForest(ctx, t, cfg)
		if err != nil {
			// Tables without numeric features are expected in log datasets
			s.deps.logger.WarnContext(ctx, "forest skipped",
				slog.String("table", t.Name),
				slog.String("reason", err.Error()))
		} else {
			forests = append(forests, result)
			anomalies += result.AnomalyCount
		}

		if col := s.timeColumn(state, t); col != "" {
			points, err := anomaly.HourlySeries(t, col)
			if err != nil {
				s.deps.logger.WarnContext(ctx, "series skipped",
					slog.String("table", t.Name),
					slog.String("column", col),
					slog.String("reason", err.Error()))
			} else if dec, err := detector.DetectSeries(ctx, points, seriesCfg); err != nil {
				s.deps.logger.WarnContext(ctx, "series decomposition failed",
					slog.String("table", t.Name),
					slog.String("reason", err.Error()))
			} else {
				series[t.Name] = dec
				anomalies += dec.AnomalyCount
			}
		}

		if stepState != nil {
			stepState.UpdateProgress(float64(i+1)/float64(len(tbls))*100,
				fmt.Sprintf("Scored %s", t.Name))
		}
	}

	state.SetContext(ContextKeyForest, forests)
	state.SetContext(ContextKeySeries, series)

	if s.deps.metrics != nil {
		s.deps.metrics.AnomaliesDetected.Add(ctx, int64(anomalies))
		s.deps.metrics.AnomalyDetectionDuration.Record(ctx, time.Since(start).Seconds())
	}
	if stepState != nil {
		stepState.SetMetadata("forest_tables", len(forests))
		stepState.SetMetadata("series_tables", len(series))
		stepState.SetMetadata("anomalies", anomalies)
	}

	s.deps.logger.InfoContext(ctx, "anomaly detection finished",
		slog.Int("forest_tables", len(forests)),
		slog.Int("series_tables", len(series)),
		slog.Int("anomalies", anomalies),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// ReportStep exports every artifact produced by the run to the reports
// directory: profile, reduction, signature and anomaly CSVs, the entity
// map JSON, and optionally a consolidated workbook.
type ReportStep struct {
	BaseStep
	deps stepDeps
}

// NewReportStep creates the report export step
func NewReportStep(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ReportStep {
	return &ReportStep{
		BaseStep: NewBaseStep(StepIDReport, StepNameReport, []string{StepIDSignature, StepIDAnomaly}),
		deps:     newStepDeps(paths, logger, metrics),
	}
}

func (s *ReportStep) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Type: DataTypeReportFiles, Location: s.deps.paths.ReportsDir, Pattern: "loglens_*"},
	}
}

func (s *ReportStep) Execute(ctx context.Context, state *OperationState) error {
	writer := exporter.NewReportWriter(s.deps.paths, s.deps.logger)
	date := time.Now()
	var written []string

	profiles, _ := contextValue[[]domain.TableProfile](state, ContextKeyProfiles)
	reductions, _ := contextValue[[]*domain.ReductionReport](state, ContextKeyReductions)
	assignments, _ := contextValue[[]domain.EntityAssignment](state, ContextKeyAssignments)
	entityMap, _ := contextValue[*domain.EntityMap](state, ContextKeyEntityMap)
	sets, _ := contextValue[[]*domain.SignatureSet](state, ContextKeySignatures)
	forests, _ := contextValue[[]*domain.ForestResult](state, ContextKeyForest)
	series, _ := contextValue[map[string]*domain.SeriesDecomposition](state, ContextKeySeries)

	if len(profiles) > 0 {
		path, err := writer.WriteProfiles(profiles, date)
		if err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		written = append(written, path)
	}

	for _, report := range reductions {
		path, err := writer.WriteReduction(report, date)
		if err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		written = append(written, path)
	}

	for _, set := range sets {
		path, err := writer.WriteSignatures(set, date)
		if err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		written = append(written, path)
	}

	for _, result := range forests {
		path, err := writer.WriteForestAnomalies(result, false, date)
		if err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		written = append(written, path)
	}

	for table, dec := range series {
		path, err := writer.WriteSeriesDecomposition(dec, table, date)
		if err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		written = append(written, path)
	}

	if entityMap != nil {
		path, err := writer.WriteEntityMapJSON(entityMap, date)
		if err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		written = append(written, path)

		if configBool(state, "include_queries", true) {
			search := configString(state, "query_search", "*")
			template := configString(state, "query_template", "")

			types := make([]domain.EntityType, 0, len(entityMap.Entities))
			for et := range entityMap.Entities {
				types = append(types, et)
			}
			sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

			var queries []domain.HuntingQuery
			for _, et := range types {
				queries = append(queries, entity.GenerateQueries(entityMap, et, search, template)...)
			}
			if len(queries) > 0 {
				path, err := writer.WriteQueriesJSON(queries, date)
				if err != nil {
					return NewExecutionError(s.ID(), err, true)
				}
				written = append(written, path)
			}
		}
	}

	if configBool(state, "include_workbook", true) {
		content := exporter.WorkbookContent{
			Dataset:     configString(state, ContextKeyDataset, "dataset"),
			Profiles:    profiles,
			Assignments: assignments,
			Signatures:  sets,
			Forest:      forests,
			Reductions:  reductions,
		}
		path, err := writer.WriteWorkbook(content, date)
		if err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		written = append(written, path)
	}

	state.SetContext(ContextKeyReports, written)

	if stepState := state.GetStep(s.ID()); stepState != nil {
		stepState.SetMetadata("files", len(written))
		stepState.UpdateProgress(100, fmt.Sprintf("Wrote %d report files", len(written)))
	}

	s.deps.logger.InfoContext(ctx, "reports written", slog.Int("files", len(written)))
	return nil
}

// manifestSatisfies checks a requirement list against the manifest data.
func manifestSatisfies(manifest *RunManifest, reqs []DataRequirement) bool {
	if manifest == nil {
		return false
	}
	for _, req := range reqs {
		if req.Optional {
			continue
		}
		data, exists := manifest.GetData(req.Type)
		if !exists {
			return false
		}
		if req.MinCount > 0 && data.FileCount < req.MinCount {
			return false
		}
	}
	return true
}

// contextValue reads a typed value from the operation context.
func contextValue[T any](state *OperationState, key string) (T, bool) {
	var zero T
	val, ok := state.GetContext(key)
	if !ok {
		return zero, false
	}
	typed, ok := val.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Config readers tolerant of JSON-decoded parameter types.

func configString(state *OperationState, key, fallback string) string {
	if val, ok := state.GetConfig(key); ok {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func configBool(state *OperationState, key string, fallback bool) bool {
	if val, ok := state.GetConfig(key); ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return fallback
}

func configInt(state *OperationState, key string, fallback int) int {
	if val, ok := state.GetConfig(key); ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return fallback
}

func configFloat(state *OperationState, key string, fallback float64) float64 {
	if val, ok := state.GetConfig(key); ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return fallback
}

func configStringSlice(state *OperationState, key string) []string {
	val, ok := state.GetConfig(key)
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
