// Package ledger хранит идентификаторы уже обработанных элементов между запусками.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	SourceURL string    `json:"sourceUrl,omitempty"`
}

// UnmarshalJSON понимает и записи старых скриптов: {"ts": <секунды unix>, "url": "..."}.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Timestamp *time.Time `json:"timestamp"`
		SourceURL string     `json:"sourceUrl"`
		TS        *float64   `json:"ts"`
		URL       string     `json:"url"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*e = Entry{SourceURL: raw.SourceURL}
	switch {
	case raw.Timestamp != nil:
		e.Timestamp = *raw.Timestamp
	case raw.TS != nil:
		sec, frac := math.Modf(*raw.TS)
		e.Timestamp = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	if e.SourceURL == "" {
		e.SourceURL = raw.URL
	}
	return nil
}

// Ledger отображение id → Entry, записываемое на диск после каждого добавления.
type Ledger struct {
	path string

	mu      sync.RWMutex
	entries map[string]Entry
}

// Load читает файл один раз. Отсутствующий файл означает пустой журнал.
// Поддерживается и старый формат: JSON массив идентификаторов.
func Load(path string) (*Ledger, error) {
	l := &Ledger{path: path, entries: make(map[string]Entry)}
	if path == "" {
		return l, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение журнала %s: %w", path, err)
	}
	if len(raw) == 0 {
		return l, nil
	}

	if err := json.Unmarshal(raw, &l.entries); err == nil {
		return l, nil
	}

	var ids []any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&ids); err != nil {
		return nil, fmt.Errorf("журнал %s: неизвестный формат: %w", path, err)
	}
	for _, id := range ids {
		l.entries[fmt.Sprint(id)] = Entry{}
	}
	return l, nil
}

func (l *Ledger) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[id]
	return ok
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// IDs возвращает отсортированный список идентификаторов.
func (l *Ledger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Add добавляет запись и сразу сохраняет файл целиком: журнал небольшой,
// а сбой посреди прогона не должен терять уже сделанное.
func (l *Ledger) Add(id, sourceURL string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[id] = Entry{Timestamp: at.UTC(), SourceURL: sourceURL}
	return l.flush()
}

func (l *Ledger) flush() error {
	if l.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("сериализация журнала: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("временный файл журнала: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("запись журнала: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("запись журнала: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("замена журнала: %w", err)
	}
	return nil
}
