// Package events пишет структурированный журнал событий сценария в формате JSONL.
// Каждая строка: {"type": ..., "ts": ..., "run_id": ..., ...поля}. Журнал только дописывается
// и самой программой не читается.
package events

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Recorder struct {
	log   *zap.Logger
	echo  *zap.Logger
	close func() error
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "type",
		TimeKey:        "ts",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}
}

// New создаёт журнал поверх произвольного приёмника. echo (может быть nil) дублирует
// события в основной лог на уровне Debug.
func New(w zapcore.WriteSyncer, runID string, echo *zap.Logger) *Recorder {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), w, zapcore.DebugLevel)
	return &Recorder{
		log:   zap.New(core).With(zap.String("run_id", runID)),
		echo:  echo,
		close: func() error { return nil },
	}
}

// Open дописывает события в файл path. Пустой путь даёт журнал, который ничего не пишет.
func Open(path, runID string, echo *zap.Logger) (*Recorder, error) {
	if path == "" {
		r := Nop()
		r.echo = echo
		return r, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("открытие журнала событий: %w", err)
	}
	r := New(zapcore.Lock(f), runID, echo)
	r.close = func() error {
		_ = r.log.Sync()
		return f.Close()
	}
	return r, nil
}

func Nop() *Recorder {
	return &Recorder{log: zap.NewNop(), close: func() error { return nil }}
}

func (r *Recorder) Record(eventType string, fields ...zap.Field) {
	r.log.Info(eventType, fields...)
	if r.echo != nil {
		r.echo.Debug("событие: "+eventType, fields...)
	}
}

func (r *Recorder) Close() error {
	return r.close()
}
