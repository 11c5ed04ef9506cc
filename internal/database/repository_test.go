package database

import (
	"testing"
	"time"

	"talentAgent/internal/runner"

	"github.com/stretchr/testify/assert"
)

func TestItemResultFromRecord(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	res := itemResult("run-1", runner.ItemRecord{
		ItemID:   "42",
		URL:      "https://www.voices.com/profile/42",
		Page:     2,
		Outcome:  "succeeded",
		Phase:    "submit",
		Step:     "set_value",
		Implicit: true,
		At:       at,
	})

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "42", res.ItemID)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, "set_value", res.Step)
	assert.True(t, res.Implicit)
	assert.Equal(t, time.UTC, res.CreatedAt.Location())
	assert.True(t, res.CreatedAt.Equal(at))
}

func TestItemResultWithoutTimestamp(t *testing.T) {
	res := itemResult("run-1", runner.ItemRecord{Outcome: "skipped"})
	assert.False(t, res.CreatedAt.IsZero())
}

func TestFinishUpdates(t *testing.T) {
	sum := runner.Summary{
		RunID:      "run-1",
		Pages:      3,
		Counters:   runner.Counters{Seen: 5, Succeeded: 2, AlreadyDone: 1, Failed: 1, Unknown: 1},
		FinishedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	u := finishUpdates(sum)
	assert.Equal(t, StatusCompleted, u["status"])
	assert.Equal(t, 3, u["pages"])
	assert.Equal(t, 5, u["seen"])
	assert.Equal(t, 1, u["already_done"])
	assert.Equal(t, 1, u["unknown"])

	sum.Interrupted = true
	assert.Equal(t, StatusInterrupted, finishUpdates(sum)["status"])
}
