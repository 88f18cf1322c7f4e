// Package tool defines typed tools that a model can ask the caller to run.
//
// A [Tool] wraps a Go function together with its name, description and JSON
// schemas derived from the input and output types. [NewTool] builds one;
// [Catalog] holds a set of tools and dispatches calls to them by name.
// Arguments supplied by the model are decoded leniently, and anything that
// still cannot be decoded is reported as [ErrInvalidArguments].
package tool
