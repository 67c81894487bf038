package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     *float64
		missing   string
		expected  string
	}{
		{name: "precision 2", precision: 2, value: f64(3.14159), expected: "3.14"},
		{name: "precision 1", precision: 1, value: f64(3.14159), expected: "3.1"},
		{name: "precision 4", precision: 4, value: f64(3.14159), expected: "3.1416"},
		{name: "negative value", precision: 2, value: f64(-42.567), expected: "-42.57"},
		{name: "missing in table", precision: 2, value: nil, missing: "-", expected: "-"},
		{name: "missing in csv", precision: 2, value: nil, missing: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, fmtOpt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtOpt(tt.value, tt.missing))
			if tt.value != nil {
				assert.Equal(t, tt.expected, fmtFloat(*tt.value))
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]any{"name": "test", "value": 42}))
	assert.Equal(t, "{\n  \"name\": \"test\",\n  \"value\": 42\n}\n", buf.String())
}

func TestWriteJSONError(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "two, three"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"two, three\"\n", buf.String())
}

func TestWriteCSVWithHeaderError(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error {
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFileStdout(t *testing.T) {
	called := false
	err := writeWithFile("", func(w io.Writer) error {
		called = true
		_, err := w.Write([]byte(""))
		return err
	}, "Test message")

	require.NoError(t, err)
	assert.True(t, called, "Writer function should have been called")
}

func TestWriteWithFileActualFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test.txt")

	err := writeWithFile(tmpFile, func(w io.Writer) error {
		_, err := w.Write([]byte("test content"))
		return err
	}, "Test message")
	require.NoError(t, err)

	content, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "test content", string(content))
}

func TestWriteWithFileError(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test.txt")

	err := writeWithFile(tmpFile, func(io.Writer) error {
		return assert.AnError
	}, "Test message")
	require.Error(t, err)
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFileInvalidPath(t *testing.T) {
	err := writeWithFile("/nonexistent/path/file.txt", func(io.Writer) error {
		return nil
	}, "Test message")
	require.Error(t, err)
}

func TestWriteParquetFileRequiresPath(t *testing.T) {
	called := false
	err := writeParquetFile("", func(string) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file")
	assert.False(t, called)
}
