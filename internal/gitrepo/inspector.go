package gitrepo

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	inspectionCheckFailedMessageConstant = "repository check skipped"
	inspectionCompletedMessageConstant   = "repository inspected"
	logFieldRepositoryPathConstant       = "repository_path"
	logFieldCheckConstant                = "check"
	logFieldReasonsConstant              = "reasons"
	checkNameBranchConstant              = "branch"
	checkNameStatusConstant              = "status"
	checkNameStashConstant               = "stash"
)

// Inspector decides why a repository is dirty.
type Inspector struct {
	stateReader     RepositoryStateReader
	defaultBranches map[string]struct{}
	logger          *zap.Logger
}

// NewInspector constructs an Inspector. An empty defaultBranches selects DefaultBranchNames.
func NewInspector(stateReader RepositoryStateReader, defaultBranches []string, logger *zap.Logger) (*Inspector, error) {
	if stateReader == nil {
		return nil, ErrStateReaderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	branchLookup := make(map[string]struct{})
	for _, branchName := range defaultBranches {
		trimmed := strings.TrimSpace(branchName)
		if len(trimmed) == 0 {
			continue
		}
		branchLookup[trimmed] = struct{}{}
	}
	if len(branchLookup) == 0 {
		for _, branchName := range DefaultBranchNames() {
			branchLookup[branchName] = struct{}{}
		}
	}

	return &Inspector{stateReader: stateReader, defaultBranches: branchLookup, logger: logger}, nil
}

// Inspect runs the branch, status, and stash checks and returns the reasons
// that fired, in that order. A failed check contributes no reason. An empty
// result means the repository is clean.
func (inspector *Inspector) Inspect(executionContext context.Context, repositoryPath string) []string {
	reasons := make([]string, 0, 3)

	branchName, branchError := inspector.stateReader.CurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		inspector.logSkippedCheck(repositoryPath, checkNameBranchConstant, branchError)
	} else if !inspector.isDefaultBranch(branchName) {
		reasons = append(reasons, ReasonNotOnDefaultBranch)
	}

	statusEntries, statusError := inspector.stateReader.StatusEntries(executionContext, repositoryPath)
	if statusError != nil {
		inspector.logSkippedCheck(repositoryPath, checkNameStatusConstant, statusError)
	} else if len(statusEntries) > 0 {
		reasons = append(reasons, ReasonWorkingTreeChanges)
	}

	stashCount, stashError := inspector.stateReader.StashCount(executionContext, repositoryPath)
	if stashError != nil {
		inspector.logSkippedCheck(repositoryPath, checkNameStashConstant, stashError)
	} else if stashCount > 0 {
		reasons = append(reasons, ReasonStashNotEmpty)
	}

	inspector.logger.Debug(
		inspectionCompletedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.Strings(logFieldReasonsConstant, reasons),
	)

	return reasons
}

func (inspector *Inspector) isDefaultBranch(branchName string) bool {
	_, isDefault := inspector.defaultBranches[strings.TrimSpace(branchName)]
	return isDefault
}

func (inspector *Inspector) logSkippedCheck(repositoryPath string, checkName string, checkError error) {
	inspector.logger.Debug(
		inspectionCheckFailedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.String(logFieldCheckConstant, checkName),
		zap.Error(checkError),
	)
}
