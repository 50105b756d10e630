package ignore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

const (
	commentPrefixConstant          = "#"
	carriageReturnConstant         = "\r"
	ignoreFileReadErrorTemplate    = "failed to read ignore file %s: %w"
	ignoreFileScanErrorTemplate    = "failed to scan ignore file %s: %w"
	fileReaderNotConfiguredMessage = "ignore loader requires a file reader"
)

// ErrFileReaderNotConfigured indicates the loader was constructed without a reader.
var ErrFileReaderNotConfigured = errors.New(fileReaderNotConfiguredMessage)

// FileReader reads whole files.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Loader reads ignore patterns from a file with one pattern per line.
type Loader struct {
	fileReader FileReader
}

// NewLoader constructs a Loader backed by the provided reader.
func NewLoader(fileReader FileReader) *Loader {
	return &Loader{fileReader: fileReader}
}

// Load reads the patterns stored at path. A missing file yields an empty set.
func (loader *Loader) Load(path string) (PatternSet, error) {
	if loader == nil || loader.fileReader == nil {
		return PatternSet{}, ErrFileReaderNotConfigured
	}
	if len(strings.TrimSpace(path)) == 0 {
		return PatternSet{}, nil
	}

	content, readError := loader.fileReader.ReadFile(path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return PatternSet{}, nil
		}
		return PatternSet{}, fmt.Errorf(ignoreFileReadErrorTemplate, path, readError)
	}

	patterns, parseError := ParsePatterns(bytes.NewReader(content))
	if parseError != nil {
		return PatternSet{}, fmt.Errorf(ignoreFileScanErrorTemplate, path, parseError)
	}
	return patterns, nil
}

// ParsePatterns reads one pattern per line, skipping blank lines and lines starting with '#'.
func ParsePatterns(reader io.Reader) (PatternSet, error) {
	var patterns []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), carriageReturnConstant))
		if len(line) == 0 {
			continue
		}
		if strings.HasPrefix(line, commentPrefixConstant) {
			continue
		}
		patterns = append(patterns, line)
	}
	if scanError := scanner.Err(); scanError != nil {
		return PatternSet{}, scanError
	}
	return NewPatternSet(patterns), nil
}
