package ignore_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/mess/internal/ignore"
)

const (
	testIgnoreFileNameConstant    = "ignore"
	testIgnoreFileContentConstant = "# workspace leftovers\n\n.DS_Store\r\n  node_modules  \n#.cache\ntarget\n"
)

type osFileReader struct{}

func (osFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

type failingFileReader struct {
	failure error
}

func (reader failingFileReader) ReadFile(string) ([]byte, error) {
	return nil, reader.failure
}

func TestLoaderSkipsCommentsAndBlankLines(testInstance *testing.T) {
	ignoreFilePath := filepath.Join(testInstance.TempDir(), testIgnoreFileNameConstant)
	require.NoError(testInstance, os.WriteFile(ignoreFilePath, []byte(testIgnoreFileContentConstant), 0o600))

	patternSet, loadError := ignore.NewLoader(osFileReader{}).Load(ignoreFilePath)

	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{".DS_Store", "node_modules", "target"}, patternSet.Patterns())
}

func TestLoaderTreatsMissingFileAsEmpty(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), "absent", testIgnoreFileNameConstant)

	patternSet, loadError := ignore.NewLoader(osFileReader{}).Load(missingPath)

	require.NoError(testInstance, loadError)
	require.Zero(testInstance, patternSet.Len())
}

func TestLoaderPropagatesReadFailures(testInstance *testing.T) {
	loader := ignore.NewLoader(failingFileReader{failure: fs.ErrPermission})

	_, loadError := loader.Load("/etc/mess/ignore")

	require.Error(testInstance, loadError)
	require.True(testInstance, errors.Is(loadError, fs.ErrPermission))
}

func TestLoaderRequiresReader(testInstance *testing.T) {
	_, loadError := ignore.NewLoader(nil).Load("/etc/mess/ignore")

	require.ErrorIs(testInstance, loadError, ignore.ErrFileReaderNotConfigured)
}

func TestParsePatternsKeepsOrder(testInstance *testing.T) {
	patternSet, parseError := ignore.ParsePatterns(strings.NewReader("b\na\nc\n"))

	require.NoError(testInstance, parseError)
	require.Equal(testInstance, []string{"b", "a", "c"}, patternSet.Patterns())
}
