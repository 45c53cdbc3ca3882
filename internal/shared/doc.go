// Package shared holds cross-cutting helpers that belong to no single
// domain layer.
//
// The testutil subpackage provides an slog capture handler so tests can
// assert on structured log output instead of discarding it.
package shared
