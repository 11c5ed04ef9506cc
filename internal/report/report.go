// Package report сохраняет элементы, требующие ручной проверки.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"talentAgent/internal/runner"
)

var header = []string{"item_id", "outcome", "phase", "reason", "url", "ts", "implicit"}

// AppendFailed дописывает записи в CSV файл, добавляя заголовок в новый файл.
func AppendFailed(path string, recs []runner.ItemRecord) error {
	if path == "" || len(recs) == 0 {
		return nil
	}

	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("открытие %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, r := range recs {
		row := []string{
			r.ItemID,
			r.Outcome,
			r.Phase,
			r.Reason,
			r.URL,
			r.At.UTC().Format(time.RFC3339),
			strconv.FormatBool(r.Implicit),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("запись %s: %w", path, err)
	}
	return f.Close()
}
