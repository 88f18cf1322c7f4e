// Package promobs backs observability.Metrics with Prometheus collectors.
//
// Instruments are created lazily on first use and registered on the
// Registerer passed to New. Label names are fixed per metric: attributes whose
// key is declared for the metric become label values, all other attributes
// are dropped. Attribute keys are sanitized into label names by replacing
// every character outside [a-zA-Z0-9_] with an underscore, so
// observability.AttrItemOutcome ("item.outcome") becomes the label
// "item_outcome".
//
//	registry := prometheus.NewRegistry()
//	metrics := promobs.New(registry,
//	    promobs.WithLabels(observability.MetricItemsResolved, observability.AttrItemOutcome),
//	)
//	observer := slogobs.New(slogobs.WithMetrics(metrics))
package promobs
