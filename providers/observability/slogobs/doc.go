// Package slogobs implements [observability.Provider] on top of log/slog.
//
// Spans and span events become debug log lines, errors are logged at error
// level, and metrics are either delegated to another [observability.Metrics]
// (see [WithMetrics]) or kept in memory and echoed at debug level.
// Format and level default to BATCHCALC_LOG_FORMAT and BATCHCALC_LOG_LEVEL.
package slogobs
