package gitrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/mess/internal/gitrepo"
)

type stubStateReader struct {
	branchName    string
	branchError   error
	statusEntries []gitrepo.StatusEntry
	statusError   error
	stashCount    int
	stashError    error
}

func (reader stubStateReader) CurrentBranch(context.Context, string) (string, error) {
	return reader.branchName, reader.branchError
}

func (reader stubStateReader) StatusEntries(context.Context, string) ([]gitrepo.StatusEntry, error) {
	return reader.statusEntries, reader.statusError
}

func (reader stubStateReader) StashCount(context.Context, string) (int, error) {
	return reader.stashCount, reader.stashError
}

func TestInspectorReasons(testInstance *testing.T) {
	checkFailure := errors.New("check failed")
	twoModifiedFiles := []gitrepo.StatusEntry{{Code: " M", Path: "a.go"}, {Code: " M", Path: "b.go"}}

	testCases := []struct {
		name            string
		reader          stubStateReader
		defaultBranches []string
		expected        []string
	}{
		{
			name:     "clean_repository_on_main",
			reader:   stubStateReader{branchName: "main"},
			expected: []string{},
		},
		{
			name:     "clean_repository_on_master",
			reader:   stubStateReader{branchName: "master"},
			expected: []string{},
		},
		{
			name:   "all_checks_fire_in_fixed_order",
			reader: stubStateReader{branchName: "feature/x", statusEntries: twoModifiedFiles, stashCount: 1},
			expected: []string{
				gitrepo.ReasonNotOnDefaultBranch,
				gitrepo.ReasonWorkingTreeChanges,
				gitrepo.ReasonStashNotEmpty,
			},
		},
		{
			name:     "stash_only",
			reader:   stubStateReader{branchName: "main", stashCount: 3},
			expected: []string{gitrepo.ReasonStashNotEmpty},
		},
		{
			name:     "branch_failure_is_not_dirty",
			reader:   stubStateReader{branchError: gitrepo.ErrDetachedHead, statusEntries: twoModifiedFiles},
			expected: []string{gitrepo.ReasonWorkingTreeChanges},
		},
		{
			name:     "every_check_failing_is_clean",
			reader:   stubStateReader{branchError: checkFailure, statusError: checkFailure, stashError: checkFailure},
			expected: []string{},
		},
		{
			name:            "configured_default_branches",
			reader:          stubStateReader{branchName: "trunk"},
			defaultBranches: []string{" trunk ", ""},
			expected:        []string{},
		},
		{
			name:            "configured_default_branches_replace_conventional_names",
			reader:          stubStateReader{branchName: "main"},
			defaultBranches: []string{"trunk"},
			expected:        []string{gitrepo.ReasonNotOnDefaultBranch},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			inspector, creationError := gitrepo.NewInspector(testCase.reader, testCase.defaultBranches, zap.NewNop())
			require.NoError(testInstance, creationError)

			reasons := inspector.Inspect(context.Background(), testRepositoryPathConstant)

			require.Equal(testInstance, testCase.expected, reasons)
		})
	}
}

func TestInspectorLogsSkippedChecksAtDebugLevel(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	checkFailure := errors.New("git missing")
	inspector, creationError := gitrepo.NewInspector(
		stubStateReader{branchError: checkFailure, statusError: checkFailure, stashError: checkFailure},
		nil,
		zap.New(observerCore),
	)
	require.NoError(testInstance, creationError)

	inspector.Inspect(context.Background(), testRepositoryPathConstant)

	skippedEntries := observerLogs.FilterMessage("repository check skipped").All()
	require.Len(testInstance, skippedEntries, 3)
	for _, skippedEntry := range skippedEntries {
		require.Equal(testInstance, zap.DebugLevel, skippedEntry.Level)
	}
}

func TestNewInspectorRequiresStateReader(testInstance *testing.T) {
	_, creationError := gitrepo.NewInspector(nil, nil, zap.NewNop())

	require.ErrorIs(testInstance, creationError, gitrepo.ErrStateReaderNotConfigured)
}
