package pacing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(0.2))
	assert.Equal(t, 5.0, Clamp(12))
	assert.Equal(t, 2.5, Clamp(2.5))
}

func TestPacerReadsSpeedFileLive(t *testing.T) {
	file := filepath.Join(t.TempDir(), "speed.cfg")
	p := NewPacer(file, 3, nil)

	assert.Equal(t, 3.0, p.Speed())

	require.NoError(t, os.WriteFile(file, []byte(" 1.5\n"), 0o644))
	assert.Equal(t, 1.5, p.Speed())

	require.NoError(t, os.WriteFile(file, []byte("9"), 0o644))
	assert.Equal(t, 5.0, p.Speed())

	require.NoError(t, os.WriteFile(file, []byte("fast"), 0o644))
	assert.Equal(t, 3.0, p.Speed())
}

func TestPacerDelayScaledBySpeed(t *testing.T) {
	p := NewPacer("", 2, nil)
	r := Range{Min: time.Second, Max: 2 * time.Second}
	for i := 0; i < 50; i++ {
		d := p.Delay(r)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestPacerWriteSpeed(t *testing.T) {
	file := filepath.Join(t.TempDir(), "speed.cfg")
	p := NewPacer(file, 5, nil)

	v, err := p.WriteSpeed(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, 1.0, p.Speed())
}

func TestPacerSleepHonoursContext(t *testing.T) {
	p := NewPacer("", 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Sleep(ctx, Range{Min: time.Hour, Max: time.Hour}), context.Canceled)
}

func TestPauseGate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "PAUSE")
	g := NewPauseGate(file, 5*time.Millisecond, nil)

	assert.False(t, g.Paused())
	require.NoError(t, g.Wait(context.Background()))

	require.NoError(t, g.Pause())
	assert.True(t, g.Paused())

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = g.Resume()
	}()
	require.NoError(t, g.Wait(context.Background()))
	assert.False(t, g.Paused())

	require.NoError(t, g.Resume())
}

func TestPauseGateCancelled(t *testing.T) {
	file := filepath.Join(t.TempDir(), "PAUSE")
	g := NewPauseGate(file, 5*time.Millisecond, nil)
	require.NoError(t, g.Pause())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)
}
