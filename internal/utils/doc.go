// Package utils provides shared low-level helpers used by the provider
// implementations: JSON-over-HTTP round-trips, a JSON Lines reader for
// downloaded batch results, and small string helpers.
//
// Key entry points: [DoPostSync] and [DoGetSync] for synchronous JSON
// round-trips, [DoGetStream] together with [JSONLScanner] for line-delimited
// result files, and [HTTPError] for status-aware error handling.
package utils
