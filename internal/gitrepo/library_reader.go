package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	stashReferenceNameConstant      = "refs/stash"
	gitMetadataDirectoryConstant    = ".git"
	stashReflogRelativePathConstant = "logs/refs/stash"
	repositoryOpenErrorTemplate     = "failed to open repository %s: %w"
	headLookupErrorTemplate         = "failed to read HEAD in %s: %w"
	worktreeErrorTemplate           = "failed to open worktree in %s: %w"
	worktreeStatusErrorTemplate     = "failed to compute status in %s: %w"
	stashLookupErrorTemplate        = "failed to read stash reference in %s: %w"
	fileReaderNotConfiguredMessage  = "library state reader requires a file reader"
	minimumStashCountWithReference  = 1
)

// ErrFileReaderNotConfigured indicates the library reader was constructed without a file reader.
var ErrFileReaderNotConfigured = errors.New(fileReaderNotConfiguredMessage)

// FileReader reads whole files.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// LibraryStateReader reads repository state in-process with go-git.
type LibraryStateReader struct {
	fileReader FileReader
}

// NewLibraryStateReader constructs a go-git backed reader. The file reader is
// used for the stash reflog, which go-git does not expose.
func NewLibraryStateReader(fileReader FileReader) (*LibraryStateReader, error) {
	if fileReader == nil {
		return nil, ErrFileReaderNotConfigured
	}
	return &LibraryStateReader{fileReader: fileReader}, nil
}

// CurrentBranch returns the short name of the branch HEAD points to.
func (reader *LibraryStateReader) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	repository, openError := reader.open(executionContext, repositoryPath)
	if openError != nil {
		return "", openError
	}

	headReference, headError := repository.Reference(plumbing.HEAD, false)
	if headError != nil {
		return "", fmt.Errorf(headLookupErrorTemplate, repositoryPath, headError)
	}
	if headReference.Type() != plumbing.SymbolicReference || !headReference.Target().IsBranch() {
		return "", ErrDetachedHead
	}
	return headReference.Target().Short(), nil
}

// StatusEntries returns every file whose staging or worktree state differs from HEAD.
func (reader *LibraryStateReader) StatusEntries(executionContext context.Context, repositoryPath string) ([]StatusEntry, error) {
	repository, openError := reader.open(executionContext, repositoryPath)
	if openError != nil {
		return nil, openError
	}

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(worktreeErrorTemplate, repositoryPath, worktreeError)
	}

	worktreeStatus, statusError := worktree.Status()
	if statusError != nil {
		return nil, fmt.Errorf(worktreeStatusErrorTemplate, repositoryPath, statusError)
	}

	entries := make([]StatusEntry, 0, len(worktreeStatus))
	for filePath, fileStatus := range worktreeStatus {
		if fileStatus == nil {
			continue
		}
		if fileStatus.Staging == git.Unmodified && fileStatus.Worktree == git.Unmodified {
			continue
		}
		entries = append(entries, StatusEntry{
			Code: string([]byte{byte(fileStatus.Staging), byte(fileStatus.Worktree)}),
			Path: filePath,
		})
	}

	sort.Slice(entries, func(leftIndex int, rightIndex int) bool {
		return entries[leftIndex].Path < entries[rightIndex].Path
	})
	return entries, nil
}

// StashCount returns the number of stash entries recorded in the stash reflog.
func (reader *LibraryStateReader) StashCount(executionContext context.Context, repositoryPath string) (int, error) {
	repository, openError := reader.open(executionContext, repositoryPath)
	if openError != nil {
		return 0, openError
	}

	_, referenceError := repository.Reference(plumbing.ReferenceName(stashReferenceNameConstant), true)
	if referenceError != nil {
		if errors.Is(referenceError, plumbing.ErrReferenceNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf(stashLookupErrorTemplate, repositoryPath, referenceError)
	}

	reflogPath := filepath.Join(repositoryPath, gitMetadataDirectoryConstant, filepath.FromSlash(stashReflogRelativePathConstant))
	reflogContent, reflogError := reader.fileReader.ReadFile(reflogPath)
	if reflogError != nil {
		if errors.Is(reflogError, fs.ErrNotExist) {
			return minimumStashCountWithReference, nil
		}
		return 0, reflogError
	}

	entryCount := CountNonEmptyLines(string(reflogContent))
	if entryCount < minimumStashCountWithReference {
		return minimumStashCountWithReference, nil
	}
	return entryCount, nil
}

func (reader *LibraryStateReader) open(executionContext context.Context, repositoryPath string) (*git.Repository, error) {
	if executionContext != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}
	}

	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return nil, fmt.Errorf(repositoryOpenErrorTemplate, repositoryPath, openError)
	}
	return repository, nil
}
