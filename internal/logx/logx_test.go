package logx

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var lineFormat = regexp.MustCompile(`^\[\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}:\d{2}\] `)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestNewFileSinkCreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	sink, err := NewFileSink(dir, "out.log")
	require.NoError(t, err)
	defer sink.Close()

	_, err = os.Stat(filepath.Join(dir, "out.log"))
	require.NoError(t, err)
}

func TestLoggerLogFormatsLine(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "primary.log")
	require.NoError(t, err)
	defer sink.Close()

	l := NewLogger(sink, nil)
	l.Log("scheduler started")

	content := readFile(t, filepath.Join(dir, "primary.log"))
	require.True(t, lineFormat.MatchString(content), "got %q", content)
	require.Contains(t, content, "scheduler started")
	require.NotContains(t, content, "[ERROR]")
}

func TestLoggerErrorfPrefixesError(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "primary.log")
	require.NoError(t, err)
	defer sink.Close()

	l := NewLogger(sink, nil)
	l.Errorf("dequeue failed: %v", os.ErrClosed)

	content := readFile(t, filepath.Join(dir, "primary.log"))
	require.Contains(t, content, "[ERROR] dequeue failed: file already closed")
}

func TestLoggerErrorfWritesBothSinks(t *testing.T) {
	dir := t.TempDir()
	primary, err := NewFileSink(dir, "primary.log")
	require.NoError(t, err)
	defer primary.Close()
	errOnly, err := NewFileSink(dir, "error.log")
	require.NoError(t, err)
	defer errOnly.Close()

	l := NewLogger(primary, errOnly)
	l.Log("routine message")
	l.Errorf("boom: %d", 1)

	primaryContent := readFile(t, filepath.Join(dir, "primary.log"))
	errContent := readFile(t, filepath.Join(dir, "error.log"))

	require.Contains(t, primaryContent, "routine message")
	require.Contains(t, primaryContent, "[ERROR] boom: 1")
	require.Contains(t, errContent, "[ERROR] boom: 1")
	require.NotContains(t, errContent, "routine message")
}

func TestNoopDiscardsEverything(t *testing.T) {
	var l Logger = Noop{}
	require.NotPanics(t, func() {
		l.Log("ignored")
		l.Errorf("ignored %d", 1)
	})
}
