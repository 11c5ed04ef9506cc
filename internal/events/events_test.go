package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestRecordWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	r := New(zapcore.AddSync(&buf), "run-1", nil)

	r.Record("selection_attempt", zap.String("step", "set_value"))
	r.Record("submit_implicit_close")

	sc := bufio.NewScanner(&buf)
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "selection_attempt", lines[0]["type"])
	assert.Equal(t, "set_value", lines[0]["step"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.NotEmpty(t, lines[0]["ts"])
	assert.Equal(t, "submit_implicit_close", lines[1]["type"])
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	for i := 0; i < 2; i++ {
		r, err := Open(path, "run", nil)
		require.NoError(t, err)
		r.Record("page_scan_end")
		require.NoError(t, r.Close())
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(raw, []byte("\n")))
}

func TestOpenWithoutPath(t *testing.T) {
	r, err := Open("", "run", nil)
	require.NoError(t, err)
	r.Record("noop")
	assert.NoError(t, r.Close())
}
