// Package ignore suppresses report output for paths that contain any of a
// user's ignore patterns.
//
// Patterns are literal fragments, not globs: a path is ignored when its text
// contains a pattern anywhere.
package ignore
