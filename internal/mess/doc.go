// Package mess walks workspace roots and reports leftover files and dirty
// repositories.
//
// Walker performs the depth-first traversal for a single root. It stops at
// directories holding an exclusion marker, hands directories holding
// repository metadata to a RepositoryInspector instead of descending into
// them, and suppresses paths that match the ignore patterns. Service runs the
// walker over the roots supplied on the command line.
package mess
