// Package pacing отвечает за паузы между действиями: скорость, читаемую из файла на лету,
// и паузу по наличию файла-флага.
package pacing

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	MinSpeed = 1.0
	MaxSpeed = 5.0
)

// Range границы случайной паузы при скорости 1.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Pacer выдаёт паузы со случайным разбросом. Скорость перечитывается из файла перед каждой
// паузой, поэтому оператор может менять её не перезапуская прогон.
type Pacer struct {
	file         string
	defaultSpeed float64
	log          *zap.Logger

	mu   sync.Mutex
	rnd  *rand.Rand
	last float64
}

func NewPacer(file string, defaultSpeed float64, log *zap.Logger) *Pacer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pacer{
		file:         strings.TrimSpace(file),
		defaultSpeed: Clamp(defaultSpeed),
		log:          log,
		rnd:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
}

// Clamp ограничивает скорость диапазоном [MinSpeed, MaxSpeed].
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < MinSpeed:
		return MinSpeed
	case v > MaxSpeed:
		return MaxSpeed
	default:
		return v
	}
}

// Speed текущая скорость: значение из файла, если он читается, иначе значение по умолчанию.
func (p *Pacer) Speed() float64 {
	p.mu.Lock()
	speed := p.defaultSpeed
	p.mu.Unlock()
	if p.file != "" {
		if raw, err := os.ReadFile(p.file); err == nil {
			if v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64); err == nil {
				speed = Clamp(v)
			}
		}
	}

	p.mu.Lock()
	if speed != p.last {
		p.log.Debug("Скорость изменена", zap.Float64("speed", speed))
		p.last = speed
	}
	p.mu.Unlock()
	return speed
}

// Delay случайная пауза из диапазона r, делённого на скорость.
func (p *Pacer) Delay(r Range) time.Duration {
	if r.Max < r.Min {
		r.Max = r.Min
	}
	speed := p.Speed()
	lo := float64(r.Min) / speed
	hi := float64(r.Max) / speed

	p.mu.Lock()
	f := p.rnd.Float64()
	p.mu.Unlock()
	return time.Duration(lo + f*(hi-lo))
}

// Sleep выдерживает паузу или возвращает ошибку контекста.
func (p *Pacer) Sleep(ctx context.Context, r Range) error {
	d := p.Delay(r)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WriteSpeed записывает скорость в файл (используется сервером управления).
func (p *Pacer) WriteSpeed(v float64) (float64, error) {
	v = Clamp(v)
	if p.file == "" {
		p.mu.Lock()
		p.defaultSpeed = v
		p.mu.Unlock()
		return v, nil
	}
	return v, os.WriteFile(p.file, []byte(strconv.FormatFloat(v, 'f', 2, 64)), 0o644)
}
