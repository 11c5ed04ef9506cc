package runner

import (
	"sync"
	"time"
)

// Snapshot состояние прогона для внешних наблюдателей.
type Snapshot struct {
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	Running     bool      `json:"running"`
	Page        int       `json:"page"`
	Item        string    `json:"item,omitempty"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	Counters    Counters  `json:"counters"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Progress потокобезопасный снимок прогресса: пишет цикл, читает сервер управления.
type Progress struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

func (p *Progress) update(fn func(s *Snapshot)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.snap)
	p.snap.UpdatedAt = time.Now()
}
