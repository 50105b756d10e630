// Package gitrepo interrogates git working directories to explain why they are
// messy.
//
// It exposes the RepositoryStateReader capability with two implementations:
// CLIStateReader shells out to git through execshell, and LibraryStateReader
// reads the repository with go-git. Inspector applies the dirty-repository
// policy on top of either reader.
package gitrepo
