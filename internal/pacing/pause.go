package pacing

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"
)

const defaultPausePoll = time.Second

// PauseGate блокирует цикл, пока существует файл-флаг.
type PauseGate struct {
	file string
	poll time.Duration
	log  *zap.Logger
}

func NewPauseGate(file string, poll time.Duration, log *zap.Logger) *PauseGate {
	if poll <= 0 {
		poll = defaultPausePoll
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PauseGate{file: file, poll: poll, log: log}
}

func (g *PauseGate) Paused() bool {
	if g.file == "" {
		return false
	}
	_, err := os.Stat(g.file)
	return err == nil
}

// Wait возвращается сразу, если паузы нет; иначе опрашивает файл, пока его не удалят.
func (g *PauseGate) Wait(ctx context.Context) error {
	if !g.Paused() {
		return nil
	}
	g.log.Info("Пауза: удалите файл, чтобы продолжить", zap.String("file", g.file))

	ticker := time.NewTicker(g.poll)
	defer ticker.Stop()
	for g.Paused() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	g.log.Info("Пауза снята")
	return nil
}

func (g *PauseGate) Pause() error {
	if g.file == "" {
		return errors.New("файл паузы не настроен")
	}
	return os.WriteFile(g.file, []byte("paused\n"), 0o644)
}

func (g *PauseGate) Resume() error {
	if g.file == "" {
		return nil
	}
	if err := os.Remove(g.file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
