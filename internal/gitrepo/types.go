package gitrepo

import (
	"context"
	"errors"

	"github.com/temirov/mess/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant    = "git executor not configured"
	stateReaderNotConfiguredMessageConstant = "repository state reader not configured"
	detachedHeadMessageConstant             = "HEAD is not on a branch"
)

// Dirty reasons reported for a repository, in reporting order.
const (
	ReasonNotOnDefaultBranch = "not on default branch"
	ReasonWorkingTreeChanges = "files added, modified, or removed"
	ReasonStashNotEmpty      = "stash is not empty"
)

// Conventional default branch names.
const (
	DefaultBranchMain   = "main"
	DefaultBranchMaster = "master"
)

// ErrExecutorNotConfigured indicates a CLI reader was constructed without a git executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrStateReaderNotConfigured indicates an inspector was constructed without a state reader.
var ErrStateReaderNotConfigured = errors.New(stateReaderNotConfiguredMessageConstant)

// ErrDetachedHead indicates the repository HEAD does not name a branch.
var ErrDetachedHead = errors.New(detachedHeadMessageConstant)

// StatusEntry is a single working tree change.
type StatusEntry struct {
	Code string
	Path string
}

// RepositoryStateReader answers the questions the inspector asks about a repository.
type RepositoryStateReader interface {
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	StatusEntries(executionContext context.Context, repositoryPath string) ([]StatusEntry, error)
	StashCount(executionContext context.Context, repositoryPath string) (int, error)
}

// GitExecutor exposes the subset of shell execution used by CLIStateReader.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// DefaultBranchNames returns the branch names treated as default when none are configured.
func DefaultBranchNames() []string {
	return []string{DefaultBranchMain, DefaultBranchMaster}
}
