// Package parse turns loosely formatted model output into Go values.
//
// [ParseStringAs] decodes tool arguments, repairing malformed JSON with
// jsonrepair and unwrapping schema-style {"type", "value"} envelopes before
// giving up. [FirstNumber] extracts the numeric answer from a plain text
// reply.
package parse
