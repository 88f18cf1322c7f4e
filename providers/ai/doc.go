// Package ai defines the shared, provider-agnostic types used by batch
// backends. A backend's conversion layer maps these types to its own wire
// format, keeping the orchestration code decoupled from vendor details.
//
// The central interface is [BatchProvider]. Each batch item is a
// [BatchRequest] wrapping a [ChatRequest]; results come back as
// [BatchItemResult] values whose successful payload is a [ChatResponse].
package ai
