// Package observability defines the interfaces and semantic conventions used
// for tracing, metrics and structured logging across batchcalc.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics]
// and [Logger] into a single injectable dependency. Code that only has a
// context can retrieve the active [Provider] and [Span] with
// [ObserverFromContext] and [SpanFromContext].
//
// semconv.go lists the attribute keys, span names and metric names every
// component should use.
package observability
