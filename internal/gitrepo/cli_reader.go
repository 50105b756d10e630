package gitrepo

import (
	"context"
	"strings"

	"github.com/temirov/mess/internal/execshell"
)

const (
	gitSymbolicRefSubcommandConstant = "symbolic-ref"
	gitQuietFlagConstant             = "--quiet"
	gitShortFlagConstant             = "--short"
	gitHeadReferenceConstant         = "HEAD"
	gitStatusSubcommandConstant      = "status"
	gitPorcelainFlagConstant         = "--porcelain"
	gitStashSubcommandConstant       = "stash"
	gitStashListSubcommandConstant   = "list"
	gitOptionalLocksVariableConstant = "GIT_OPTIONAL_LOCKS"
	gitOptionalLocksDisabledConstant = "0"
)

// CLIStateReader reads repository state by running git in the repository directory.
type CLIStateReader struct {
	executor GitExecutor
}

// NewCLIStateReader constructs a reader that shells out through the provided executor.
func NewCLIStateReader(executor GitExecutor) (*CLIStateReader, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &CLIStateReader{executor: executor}, nil
}

// CurrentBranch returns the short name of the checked out branch.
func (reader *CLIStateReader) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := reader.executor.ExecuteGit(executionContext, reader.commandDetails(repositoryPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, gitHeadReferenceConstant))
	if executionError != nil {
		return "", executionError
	}

	branchName := strings.TrimSpace(executionResult.StandardOutput)
	if len(branchName) == 0 {
		return "", ErrDetachedHead
	}
	return branchName, nil
}

// StatusEntries returns the working tree changes reported by porcelain status.
func (reader *CLIStateReader) StatusEntries(executionContext context.Context, repositoryPath string) ([]StatusEntry, error) {
	executionResult, executionError := reader.executor.ExecuteGit(executionContext, reader.commandDetails(repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant))
	if executionError != nil {
		return nil, executionError
	}
	return ParseStatusEntries(executionResult.StandardOutput), nil
}

// StashCount returns the number of stash entries.
func (reader *CLIStateReader) StashCount(executionContext context.Context, repositoryPath string) (int, error) {
	executionResult, executionError := reader.executor.ExecuteGit(executionContext, reader.commandDetails(repositoryPath, gitStashSubcommandConstant, gitStashListSubcommandConstant))
	if executionError != nil {
		return 0, executionError
	}
	return CountNonEmptyLines(executionResult.StandardOutput), nil
}

// commandDetails disables optional locks so status never rewrites the index.
func (reader *CLIStateReader) commandDetails(repositoryPath string, arguments ...string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{gitOptionalLocksVariableConstant: gitOptionalLocksDisabledConstant},
	}
}
