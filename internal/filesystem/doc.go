// Package filesystem adapts operating system file primitives to the small
// interfaces consumed by the traversal engine and the ignore loader.
package filesystem
