package mess_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/mess/internal/filesystem"
	"github.com/temirov/mess/internal/ignore"
	"github.com/temirov/mess/internal/mess"
)

const (
	testFileContentConstant        = "content"
	testMissingArgumentConstant    = "~/does-not-exist"
	testDirtyReasonBranchConstant  = "not on main/master branch"
	testDirtyReasonChangesConstant = "has 2 uncommitted changes"
	testExclusionMarkerConstant    = ".nomess"
	testRepositoryMarkerConstant   = ".git"
)

type stubRepositoryInspector struct {
	reasonsByPath  map[string][]string
	inspectedPaths []string
}

func (inspector *stubRepositoryInspector) Inspect(_ context.Context, repositoryPath string) []string {
	inspector.inspectedPaths = append(inspector.inspectedPaths, repositoryPath)
	return inspector.reasonsByPath[repositoryPath]
}

func writeTestFile(testInstance *testing.T, path string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(testInstance, os.WriteFile(path, []byte(testFileContentConstant), 0o644))
}

func makeTestDirectory(testInstance *testing.T, path string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(path, 0o755))
}

func newTestWalker(testInstance *testing.T, inspector mess.RepositoryInspector, patterns []string) (*mess.Walker, *mess.ReportCollector) {
	testInstance.Helper()
	collector := &mess.ReportCollector{}
	walker, creationError := mess.NewWalker(filesystem.OSFileSystem{}, inspector, collector, mess.WalkerOptions{
		IgnorePatterns:   ignore.NewPatternSet(patterns),
		ExclusionMarker:  testExclusionMarkerConstant,
		RepositoryMarker: testRepositoryMarkerConstant,
	}, zap.NewNop())
	require.NoError(testInstance, creationError)
	return walker, collector
}

func TestNewWalkerValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		fileSystem    mess.FileSystem
		inspector     mess.RepositoryInspector
		sink          mess.ReportSink
		expectedError error
	}{
		{
			name:          "missing_filesystem",
			inspector:     &stubRepositoryInspector{},
			sink:          &mess.ReportCollector{},
			expectedError: mess.ErrFileSystemNotConfigured,
		},
		{
			name:          "missing_inspector",
			fileSystem:    filesystem.OSFileSystem{},
			sink:          &mess.ReportCollector{},
			expectedError: mess.ErrInspectorNotConfigured,
		},
		{
			name:          "missing_sink",
			fileSystem:    filesystem.OSFileSystem{},
			inspector:     &stubRepositoryInspector{},
			expectedError: mess.ErrSinkNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			walker, creationError := mess.NewWalker(testCase.fileSystem, testCase.inspector, testCase.sink, mess.WalkerOptions{}, nil)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
			require.Nil(testInstance, walker)
		})
	}
}

func TestWalkerReportsFilesDepthFirstInNameOrder(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	writeTestFile(testInstance, filepath.Join(rootDirectory, "b.txt"))
	writeTestFile(testInstance, filepath.Join(rootDirectory, "a", "nested.txt"))
	writeTestFile(testInstance, filepath.Join(rootDirectory, "c.txt"))
	makeTestDirectory(testInstance, filepath.Join(rootDirectory, "empty"))

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Equal(testInstance, []mess.Report{
		{Kind: mess.ReportKindFile, Path: filepath.Join(rootDirectory, "a", "nested.txt")},
		{Kind: mess.ReportKindFile, Path: filepath.Join(rootDirectory, "b.txt")},
		{Kind: mess.ReportKindFile, Path: filepath.Join(rootDirectory, "c.txt")},
	}, collector.Reports)
}

func TestWalkerSuppressesIgnoredPaths(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	writeTestFile(testInstance, filepath.Join(rootDirectory, "node_modules", "package.json"))
	writeTestFile(testInstance, filepath.Join(rootDirectory, "build.log"))
	writeTestFile(testInstance, filepath.Join(rootDirectory, "notes.txt"))
	writeTestFile(testInstance, filepath.Join(rootDirectory, "hidden", ".nomess"))
	makeTestDirectory(testInstance, filepath.Join(rootDirectory, "repository", ".git"))

	inspector := &stubRepositoryInspector{reasonsByPath: map[string][]string{
		filepath.Join(rootDirectory, "repository"): {testDirtyReasonBranchConstant},
	}}
	walker, collector := newTestWalker(testInstance, inspector, []string{"node_modules", ".log", "hidden", "repository"})
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Equal(testInstance, []mess.Report{
		{Kind: mess.ReportKindFile, Path: filepath.Join(rootDirectory, "notes.txt")},
	}, collector.Reports)
	require.Empty(testInstance, inspector.inspectedPaths)
}

func TestWalkerStopsAtExclusionMarker(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	excludedDirectory := filepath.Join(rootDirectory, "scratch")
	writeTestFile(testInstance, filepath.Join(excludedDirectory, testExclusionMarkerConstant))
	writeTestFile(testInstance, filepath.Join(excludedDirectory, "draft.txt"))
	makeTestDirectory(testInstance, filepath.Join(excludedDirectory, ".git"))

	inspector := &stubRepositoryInspector{}
	walker, collector := newTestWalker(testInstance, inspector, nil)
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Equal(testInstance, []mess.Report{
		{Kind: mess.ReportKindExcludedDirectory, Path: excludedDirectory},
	}, collector.Reports)
	require.Empty(testInstance, inspector.inspectedPaths)
}

func TestWalkerIgnoresExclusionMarkerDirectory(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	makeTestDirectory(testInstance, filepath.Join(rootDirectory, testExclusionMarkerConstant))
	writeTestFile(testInstance, filepath.Join(rootDirectory, "kept.txt"))

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Equal(testInstance, []mess.Report{
		{Kind: mess.ReportKindFile, Path: filepath.Join(rootDirectory, "kept.txt")},
	}, collector.Reports)
}

func TestWalkerInspectsRepositoriesWithoutDescending(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	cleanRepository := filepath.Join(rootDirectory, "clean")
	dirtyRepository := filepath.Join(rootDirectory, "dirty")
	makeTestDirectory(testInstance, filepath.Join(cleanRepository, ".git"))
	writeTestFile(testInstance, filepath.Join(cleanRepository, "main.go"))
	makeTestDirectory(testInstance, filepath.Join(dirtyRepository, ".git"))
	writeTestFile(testInstance, filepath.Join(dirtyRepository, "main.go"))

	inspector := &stubRepositoryInspector{reasonsByPath: map[string][]string{
		dirtyRepository: {testDirtyReasonBranchConstant, testDirtyReasonChangesConstant},
	}}
	walker, collector := newTestWalker(testInstance, inspector, nil)
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Equal(testInstance, []mess.Report{
		{Kind: mess.ReportKindDirtyRepository, Path: dirtyRepository, Reasons: []string{testDirtyReasonBranchConstant, testDirtyReasonChangesConstant}},
	}, collector.Reports)
	require.Equal(testInstance, []string{cleanRepository, dirtyRepository}, inspector.inspectedPaths)
}

func TestWalkerTreatsRepositoryMarkerFileAsOrdinaryFile(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	worktreeDirectory := filepath.Join(rootDirectory, "worktree")
	writeTestFile(testInstance, filepath.Join(worktreeDirectory, ".git"))

	inspector := &stubRepositoryInspector{}
	walker, collector := newTestWalker(testInstance, inspector, nil)
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Equal(testInstance, []mess.Report{
		{Kind: mess.ReportKindFile, Path: filepath.Join(worktreeDirectory, ".git")},
	}, collector.Reports)
	require.Empty(testInstance, inspector.inspectedPaths)
}

func TestWalkerReportsBrokenSymlinkAsUnknown(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	brokenLink := filepath.Join(rootDirectory, "dangling")
	require.NoError(testInstance, os.Symlink(filepath.Join(rootDirectory, "missing-target"), brokenLink))

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Len(testInstance, collector.Reports, 1)
	require.Equal(testInstance, mess.ReportKindUnknownEntry, collector.Reports[0].Kind)
	require.Equal(testInstance, brokenLink, collector.Reports[0].Path)
}

func TestWalkerReportsMissingRootWithOriginalArgument(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), "does-not-exist")

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
	require.NoError(testInstance, walker.Display(context.Background(), missingPath, testMissingArgumentConstant, false))

	require.Len(testInstance, collector.Reports, 1)
	require.Equal(testInstance, mess.ReportKindNotFound, collector.Reports[0].Kind)
	require.Equal(testInstance, testMissingArgumentConstant, collector.Reports[0].Path)
}

func TestWalkerFramesAnnouncedRoots(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	rootFile := filepath.Join(rootDirectory, "single.txt")
	writeTestFile(testInstance, rootFile)
	missingPath := filepath.Join(rootDirectory, "absent")

	testCases := []struct {
		name             string
		path             string
		originalArgument string
		expectedReports  []mess.Report
	}{
		{
			name:             "directory_root",
			path:             rootDirectory,
			originalArgument: "workspace",
			expectedReports: []mess.Report{
				{Kind: mess.ReportKindRootHeader, Path: "workspace"},
				{Kind: mess.ReportKindFile, Path: rootFile},
				{Kind: mess.ReportKindRootSeparator},
			},
		},
		{
			name:             "file_root",
			path:             rootFile,
			originalArgument: "single.txt",
			expectedReports: []mess.Report{
				{Kind: mess.ReportKindRootHeader, Path: "single.txt"},
				{Kind: mess.ReportKindFile, Path: rootFile},
				{Kind: mess.ReportKindRootSeparator},
			},
		},
		{
			name:             "missing_root",
			path:             missingPath,
			originalArgument: "absent",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
			require.NoError(testInstance, walker.Display(context.Background(), testCase.path, testCase.originalArgument, true))

			if testCase.expectedReports != nil {
				require.Equal(testInstance, testCase.expectedReports, collector.Reports)
				return
			}
			require.Len(testInstance, collector.Reports, 3)
			require.Equal(testInstance, mess.Report{Kind: mess.ReportKindRootHeader, Path: testCase.originalArgument}, collector.Reports[0])
			require.Equal(testInstance, mess.ReportKindNotFound, collector.Reports[1].Kind)
			require.Equal(testInstance, testCase.originalArgument, collector.Reports[1].Path)
			require.Equal(testInstance, mess.Report{Kind: mess.ReportKindRootSeparator}, collector.Reports[2])
		})
	}
}

func TestWalkerFramesIgnoredRootWithoutContent(testInstance *testing.T) {
	rootDirectory := filepath.Join(testInstance.TempDir(), "vendor")
	writeTestFile(testInstance, filepath.Join(rootDirectory, "lib.go"))

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, []string{"vendor"})
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, "vendor", true))

	require.Empty(testInstance, collector.Reports)
}

func TestWalkerDetectsSymlinkCycles(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "nested")
	makeTestDirectory(testInstance, nestedDirectory)
	loopLink := filepath.Join(nestedDirectory, "loop")
	require.NoError(testInstance, os.Symlink(rootDirectory, loopLink))

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Len(testInstance, collector.Reports, 1)
	require.Equal(testInstance, mess.ReportKindCycleDetected, collector.Reports[0].Kind)
	require.Equal(testInstance, loopLink, collector.Reports[0].Path)
}

func TestWalkerDetectsCycleBackToRelativeRoot(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	writeTestFile(testInstance, filepath.Join(rootDirectory, "a.txt"))
	makeTestDirectory(testInstance, filepath.Join(rootDirectory, "nested"))
	require.NoError(testInstance, os.Symlink(rootDirectory, filepath.Join(rootDirectory, "nested", "loop")))
	originalWorkingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)
	require.NoError(testInstance, os.Chdir(rootDirectory))
	testInstance.Cleanup(func() {
		_ = os.Chdir(originalWorkingDirectory)
	})

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
	require.NoError(testInstance, walker.Display(context.Background(), "./", "./", false))

	require.Len(testInstance, collector.Reports, 2)
	require.Equal(testInstance, mess.Report{Kind: mess.ReportKindFile, Path: "./a.txt"}, collector.Reports[0])
	require.Equal(testInstance, mess.ReportKindCycleDetected, collector.Reports[1].Kind)
	require.Equal(testInstance, "./nested/loop", collector.Reports[1].Path)
}

func TestWalkerReportsUnreadableDirectoryAndContinues(testInstance *testing.T) {
	if os.Geteuid() == 0 {
		testInstance.Skip("permission bits are not enforced for root")
	}
	rootDirectory := testInstance.TempDir()
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	makeTestDirectory(testInstance, lockedDirectory)
	writeTestFile(testInstance, filepath.Join(rootDirectory, "open.txt"))
	require.NoError(testInstance, os.Chmod(lockedDirectory, 0o000))
	testInstance.Cleanup(func() {
		_ = os.Chmod(lockedDirectory, 0o755)
	})

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
	require.NoError(testInstance, walker.Display(context.Background(), rootDirectory, rootDirectory, false))

	require.Len(testInstance, collector.Reports, 2)
	require.Equal(testInstance, mess.ReportKindUnreadableDirectory, collector.Reports[0].Kind)
	require.Equal(testInstance, lockedDirectory, collector.Reports[0].Path)
	require.Equal(testInstance, mess.Report{Kind: mess.ReportKindFile, Path: filepath.Join(rootDirectory, "open.txt")}, collector.Reports[1])
}

func TestWalkerProducesIdenticalOutputOnRepeatedRuns(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	writeTestFile(testInstance, filepath.Join(rootDirectory, "z.txt"))
	writeTestFile(testInstance, filepath.Join(rootDirectory, "m", "one.txt"))
	writeTestFile(testInstance, filepath.Join(rootDirectory, "m", "two.txt"))
	makeTestDirectory(testInstance, filepath.Join(rootDirectory, "repo", ".git"))

	inspector := &stubRepositoryInspector{reasonsByPath: map[string][]string{
		filepath.Join(rootDirectory, "repo"): {testDirtyReasonChangesConstant},
	}}
	firstWalker, firstCollector := newTestWalker(testInstance, inspector, nil)
	require.NoError(testInstance, firstWalker.Display(context.Background(), rootDirectory, rootDirectory, true))
	secondWalker, secondCollector := newTestWalker(testInstance, inspector, nil)
	require.NoError(testInstance, secondWalker.Display(context.Background(), rootDirectory, rootDirectory, true))

	require.Equal(testInstance, firstCollector.Reports, secondCollector.Reports)
}

func TestWalkerStopsWhenContextIsCancelled(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	writeTestFile(testInstance, filepath.Join(rootDirectory, "a.txt"))

	executionContext, cancel := context.WithCancel(context.Background())
	cancel()

	walker, collector := newTestWalker(testInstance, &stubRepositoryInspector{}, nil)
	displayError := walker.Display(executionContext, rootDirectory, rootDirectory, true)

	require.ErrorIs(testInstance, displayError, context.Canceled)
	require.Equal(testInstance, []mess.Report{
		{Kind: mess.ReportKindRootHeader, Path: rootDirectory},
		{Kind: mess.ReportKindRootSeparator},
	}, collector.Reports)
}
