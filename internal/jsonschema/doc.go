// Package jsonschema derives JSON Schema documents from Go types using
// reflection. Tool parameter types are described with ordinary json tags plus
// an optional jsonschema tag carrying description, enum and required markers.
//
// The main entry point is [Generate]. Recursive types are not supported; tool
// inputs are flat by construction.
package jsonschema
