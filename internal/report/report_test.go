package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"talentAgent/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.csv")
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, AppendFailed(path, []runner.ItemRecord{
		{ItemID: "1", Outcome: "failed", Phase: "submit", Reason: "Something, went wrong", URL: "https://x/1", At: at},
	}))
	require.NoError(t, AppendFailed(path, []runner.ItemRecord{
		{ItemID: "2", Outcome: "unknown", Phase: "submit", At: at},
	}))
	require.NoError(t, AppendFailed(path, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "Something, went wrong", rows[1][3])
	assert.Equal(t, "2024-05-01T10:00:00Z", rows[1][5])
	assert.Equal(t, "unknown", rows[2][1])
}
