// Package anomaly implements the unsupervised detection engines: shared
// statistics primitives, seasonal decomposition of hourly event series,
// and an isolation forest over numeric table features.
//
// The series detector fits an additive model (trend + seasonal +
// residual) and flags points whose residual z-score clears a threshold,
// labelling them spikes or dips by the sign of the seasonal component.
// The isolation forest scores rows by mean isolation path length across
// randomized trees; rows scoring above the contamination quantile of the
// training scores are flagged. Both engines are deterministic under a
// fixed seed.
package anomaly
