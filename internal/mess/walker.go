package mess

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/mess/internal/ignore"
)

const (
	defaultExclusionMarkerConstant        = ".nomess"
	defaultRepositoryMarkerConstant       = ".git"
	pathSeparatorConstant                 = string(os.PathSeparator)
	fileSystemNotConfiguredMessage        = "walker requires a filesystem"
	inspectorNotConfiguredMessage         = "walker requires a repository inspector"
	sinkNotConfiguredMessage              = "walker requires a report sink"
	directoryExcludedMessageConstant      = "directory excluded"
	directoryRevisitedMessageConstant     = "directory already visited"
	directoryUnreadableMessageConstant    = "directory unreadable"
	logFieldDirectoryPathConstant         = "directory_path"
	logFieldResolvedDirectoryPathConstant = "resolved_directory_path"
)

// ErrFileSystemNotConfigured indicates the walker was constructed without a filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)

// ErrInspectorNotConfigured indicates the walker was constructed without a repository inspector.
var ErrInspectorNotConfigured = errors.New(inspectorNotConfiguredMessage)

// ErrSinkNotConfigured indicates the walker was constructed without a report sink.
var ErrSinkNotConfigured = errors.New(sinkNotConfiguredMessage)

// FileSystem exposes the read-only filesystem operations used by the walker.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	EvalSymlinks(path string) (string, error)
}

// RepositoryInspector explains why a repository is dirty. An empty result means clean.
type RepositoryInspector interface {
	Inspect(executionContext context.Context, repositoryPath string) []string
}

// WalkerOptions configures traversal policy.
type WalkerOptions struct {
	IgnorePatterns   ignore.PatternSet
	ExclusionMarker  string
	RepositoryMarker string
}

// Walker traverses a single root and emits reports to a sink.
type Walker struct {
	fileSystem       FileSystem
	inspector        RepositoryInspector
	sink             ReportSink
	ignorePatterns   ignore.PatternSet
	exclusionMarker  string
	repositoryMarker string
	logger           *zap.Logger
}

type traversalState struct {
	visitedDirectories map[string]struct{}
}

// NewWalker constructs a Walker. Empty markers select ".nomess" and ".git".
func NewWalker(fileSystem FileSystem, inspector RepositoryInspector, sink ReportSink, options WalkerOptions, logger *zap.Logger) (*Walker, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if inspector == nil {
		return nil, ErrInspectorNotConfigured
	}
	if sink == nil {
		return nil, ErrSinkNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	exclusionMarker := strings.TrimSpace(options.ExclusionMarker)
	if len(exclusionMarker) == 0 {
		exclusionMarker = defaultExclusionMarkerConstant
	}
	repositoryMarker := strings.TrimSpace(options.RepositoryMarker)
	if len(repositoryMarker) == 0 {
		repositoryMarker = defaultRepositoryMarkerConstant
	}

	return &Walker{
		fileSystem:       fileSystem,
		inspector:        inspector,
		sink:             sink,
		ignorePatterns:   options.IgnorePatterns,
		exclusionMarker:  exclusionMarker,
		repositoryMarker: repositoryMarker,
		logger:           logger,
	}, nil
}

// Display classifies path and reports on it. Directories are walked, regular
// files are reported unless ignored, and anything else is reported as not
// found under originalArgument. When announceRoot is set the output is framed
// by a header carrying originalArgument and a trailing separator. The only
// error returned is a cancelled context.
func (walker *Walker) Display(executionContext context.Context, path string, originalArgument string, announceRoot bool) error {
	state := &traversalState{visitedDirectories: make(map[string]struct{})}

	fileInfo, statError := walker.fileSystem.Stat(path)
	switch {
	case statError == nil && fileInfo.IsDir():
		return walker.walkDirectory(executionContext, state, path, originalArgument, announceRoot)
	case statError == nil && fileInfo.Mode().IsRegular():
		if walker.ignorePatterns.Matches(path) {
			return nil
		}
		walker.announce(originalArgument, announceRoot, func() {
			walker.sink.Emit(Report{Kind: ReportKindFile, Path: path})
		})
	default:
		walker.announce(originalArgument, announceRoot, func() {
			walker.sink.Emit(Report{Kind: ReportKindNotFound, Path: originalArgument, Detail: describeError(statError)})
		})
	}
	return nil
}

func (walker *Walker) walkDirectory(executionContext context.Context, state *traversalState, path string, originalArgument string, announceRoot bool) error {
	if walker.ignorePatterns.Matches(path) {
		return nil
	}

	if announceRoot {
		walker.sink.Emit(Report{Kind: ReportKindRootHeader, Path: originalArgument})
		defer walker.sink.Emit(Report{Kind: ReportKindRootSeparator})
	}

	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}

	resolvedPath := walker.resolveDirectoryIdentity(path)
	if _, visited := state.visitedDirectories[resolvedPath]; visited {
		walker.logger.Debug(directoryRevisitedMessageConstant, zap.String(logFieldDirectoryPathConstant, path), zap.String(logFieldResolvedDirectoryPathConstant, resolvedPath))
		walker.sink.Emit(Report{Kind: ReportKindCycleDetected, Path: path, Detail: resolvedPath})
		return nil
	}
	state.visitedDirectories[resolvedPath] = struct{}{}

	if walker.containsMarkerFile(path, walker.exclusionMarker) {
		walker.logger.Debug(directoryExcludedMessageConstant, zap.String(logFieldDirectoryPathConstant, path))
		walker.sink.Emit(Report{Kind: ReportKindExcludedDirectory, Path: path})
		return nil
	}

	if walker.containsMarkerDirectory(path, walker.repositoryMarker) {
		reasons := walker.inspector.Inspect(executionContext, path)
		if len(reasons) > 0 {
			walker.sink.Emit(Report{Kind: ReportKindDirtyRepository, Path: path, Reasons: reasons})
		}
		return nil
	}

	directoryEntries, readError := walker.fileSystem.ReadDir(path)
	if readError != nil {
		walker.logger.Debug(directoryUnreadableMessageConstant, zap.String(logFieldDirectoryPathConstant, path), zap.Error(readError))
		walker.sink.Emit(Report{Kind: ReportKindUnreadableDirectory, Path: path, Detail: describeError(readError)})
		return nil
	}

	for _, directoryEntry := range directoryEntries {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}

		childPath := joinChildPath(path, directoryEntry.Name())
		childInfo, statError := walker.fileSystem.Stat(childPath)
		switch {
		case statError != nil:
			walker.sink.Emit(Report{Kind: ReportKindUnknownEntry, Path: childPath, Detail: describeError(statError)})
		case childInfo.IsDir():
			if walkError := walker.walkDirectory(executionContext, state, childPath, originalArgument, false); walkError != nil {
				return walkError
			}
		case childInfo.Mode().IsRegular():
			if walker.ignorePatterns.Matches(childPath) {
				continue
			}
			walker.sink.Emit(Report{Kind: ReportKindFile, Path: childPath})
		default:
			walker.sink.Emit(Report{Kind: ReportKindUnknownEntry, Path: childPath, Detail: childInfo.Mode().Type().String()})
		}
	}

	return nil
}

func (walker *Walker) announce(originalArgument string, announceRoot bool, emitContent func()) {
	if announceRoot {
		walker.sink.Emit(Report{Kind: ReportKindRootHeader, Path: originalArgument})
	}
	emitContent()
	if announceRoot {
		walker.sink.Emit(Report{Kind: ReportKindRootSeparator})
	}
}

// resolveDirectoryIdentity returns the absolute, link-free form of path so that
// "./" and a link back to the same directory share one identity. It falls back
// to the path as written when links cannot be resolved.
func (walker *Walker) resolveDirectoryIdentity(path string) string {
	resolvedPath, resolveError := walker.fileSystem.EvalSymlinks(path)
	if resolveError != nil || len(resolvedPath) == 0 {
		resolvedPath = path
	}
	absolutePath, absoluteError := filepath.Abs(resolvedPath)
	if absoluteError != nil {
		return resolvedPath
	}
	return absolutePath
}

func (walker *Walker) containsMarkerFile(directoryPath string, markerName string) bool {
	markerInfo, statError := walker.fileSystem.Stat(joinChildPath(directoryPath, markerName))
	return statError == nil && !markerInfo.IsDir()
}

func (walker *Walker) containsMarkerDirectory(directoryPath string, markerName string) bool {
	markerInfo, statError := walker.fileSystem.Stat(joinChildPath(directoryPath, markerName))
	return statError == nil && markerInfo.IsDir()
}

// joinChildPath appends name to parent without cleaning, so "./" and "a" become "./a".
func joinChildPath(parent string, name string) string {
	if len(parent) == 0 || strings.HasSuffix(parent, pathSeparatorConstant) {
		return parent + name
	}
	return parent + pathSeparatorConstant + name
}

func describeError(failure error) string {
	if failure == nil {
		return ""
	}
	return failure.Error()
}
