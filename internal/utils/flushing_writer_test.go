package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/mess/internal/utils"
)

func TestFlushingWriterFlushesBufferedWriter(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	bufferedWriter := bufio.NewWriter(destination)

	flushingWriter := utils.NewFlushingWriter(bufferedWriter)
	bytesWritten, writeError := flushingWriter.Write([]byte("file: a.txt\n"))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 12, bytesWritten)
	require.Equal(testInstance, "file: a.txt\n", destination.String())
}

func TestNewFlushingWriterDoesNotDoubleWrap(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	flushingWriter := utils.NewFlushingWriter(destination)

	require.Same(testInstance, flushingWriter, utils.NewFlushingWriter(flushingWriter))
	require.Nil(testInstance, utils.NewFlushingWriter(nil))

	unwrapped := flushingWriter.(*utils.FlushingWriter).Unwrap()
	require.Same(testInstance, destination, unwrapped)
}
