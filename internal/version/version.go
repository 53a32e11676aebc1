// Package version holds the release version stamped into the enricher binary.
package version

// Current is the semantic version without a leading "v".
var Current = "0.3.0"
