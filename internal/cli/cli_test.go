package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"talentAgent/internal/config"
	"talentAgent/internal/logger"
	"talentAgent/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Cfg {
	t.Helper()
	dir := t.TempDir()
	return &config.Cfg{
		Run: config.Run{
			MaxPages:   1,
			LedgerPath: filepath.Join(dir, "ledger.json"),
			FailedPath: filepath.Join(dir, "failed.csv"),
		},
		Pacing: config.Pacing{
			Speed:     1,
			PauseFile: filepath.Join(dir, "PAUSE"),
			PausePoll: 10 * time.Millisecond,
		},
	}
}

func execute(t *testing.T, cfg *config.Cfg, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := Execute(context.Background(), cfg, &logger.Zap{Logger: zap.NewNop()}, &out, args)
	return code, out.String()
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, exitCode(runner.Summary{Counters: runner.Counters{Seen: 3, Succeeded: 2, AlreadyDone: 1}}))
	assert.Equal(t, ExitFailures, exitCode(runner.Summary{Counters: runner.Counters{Seen: 2, Succeeded: 1, Failed: 1}}))
	assert.Equal(t, ExitFailures, exitCode(runner.Summary{Counters: runner.Counters{Seen: 1, Unknown: 1}}))
	assert.Equal(t, ExitOK, exitCode(runner.Summary{Counters: runner.Counters{Seen: 1, Skipped: 1}}))
}

func TestPauseAndResume(t *testing.T) {
	cfg := testConfig(t)

	code, out := execute(t, cfg, "pause")
	require.Equal(t, ExitOK, code, out)
	assert.FileExists(t, cfg.Pacing.PauseFile)

	code, out = execute(t, cfg, "resume")
	require.Equal(t, ExitOK, code, out)
	assert.NoFileExists(t, cfg.Pacing.PauseFile)

	// Повторное снятие паузы без файла не ошибка.
	code, _ = execute(t, cfg, "resume")
	assert.Equal(t, ExitOK, code)
}

func TestPauseFileFlagOverridesConfig(t *testing.T) {
	cfg := testConfig(t)
	other := filepath.Join(t.TempDir(), "STOP")

	code, out := execute(t, cfg, "--pause-file", other, "pause")
	require.Equal(t, ExitOK, code, out)
	assert.FileExists(t, other)
	assert.Equal(t, other, cfg.Pacing.PauseFile)
}

func TestSpeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pacing.SpeedFile = filepath.Join(t.TempDir(), "speed")

	code, out := execute(t, cfg, "speed", "3")
	require.Equal(t, ExitOK, code, out)
	data, err := os.ReadFile(cfg.Pacing.SpeedFile)
	require.NoError(t, err)
	assert.Equal(t, "3.00", string(data))

	code, out = execute(t, cfg, "speed", "9")
	require.Equal(t, ExitOK, code, out)
	assert.Contains(t, out, "5.00")
}

func TestSpeedErrors(t *testing.T) {
	cfg := testConfig(t)

	code, out := execute(t, cfg, "speed", "2")
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, out, "файл скорости не задан")

	cfg.Pacing.SpeedFile = filepath.Join(t.TempDir(), "speed")
	code, _ = execute(t, cfg, "speed", "fast")
	assert.Equal(t, ExitConfig, code)

	code, _ = execute(t, cfg, "speed")
	assert.Equal(t, ExitConfig, code)
}

func TestMissingTargetIsConfigError(t *testing.T) {
	cfg := testConfig(t)

	code, out := execute(t, cfg, "invite")
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, out, "--job-id")

	code, out = execute(t, cfg, "favorite")
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, out, "--list")
}

func TestInvalidFlagsAreConfigError(t *testing.T) {
	cfg := testConfig(t)

	code, out := execute(t, cfg, "--max-pages", "0", "pause")
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, out, "MAX_PAGES")
	assert.NoFileExists(t, cfg.Pacing.PauseFile)

	code, _ = execute(t, cfg, "no-such-command")
	assert.Equal(t, ExitConfig, code)
}

func TestRunsRequiresDatabase(t *testing.T) {
	code, out := execute(t, testConfig(t), "runs")
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, out, "DB_HOST")
}
