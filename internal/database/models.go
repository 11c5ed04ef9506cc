// Package database хранит историю прогонов в PostgreSQL.
// Использует GORM ORM с prepared statements для защиты от SQL injection.
package database

import "time"

// Run представляет один прогон по выдаче.
// Статусы: running, completed, interrupted.
type Run struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)"`
	Kind        string     `gorm:"type:varchar(32);not null"` // invite, favorite
	Target      string     `gorm:"type:text"`                 // описание цели выбора
	DryRun      bool       `gorm:"not null;default:false"`
	Status      string     `gorm:"type:varchar(32);not null;default:'running'"`
	Pages       int        `gorm:"not null;default:0"`
	Seen        int        `gorm:"not null;default:0"`
	Succeeded   int        `gorm:"not null;default:0"`
	AlreadyDone int        `gorm:"not null;default:0"`
	Skipped     int        `gorm:"not null;default:0"`
	Failed      int        `gorm:"not null;default:0"`
	Unknown     int        `gorm:"not null;default:0"`
	StartedAt   time.Time  `gorm:"not null"`
	FinishedAt  *time.Time
}

// ItemResult итог обработки одной карточки.
type ItemResult struct {
	ID        uint      `gorm:"primaryKey"`
	RunID     string    `gorm:"type:varchar(36);index;not null"`
	ItemID    string    `gorm:"type:varchar(128);index"`
	URL       string    `gorm:"type:text"`
	Page      int       `gorm:"not null"`
	Outcome   string    `gorm:"type:varchar(32);not null"`
	Phase     string    `gorm:"type:varchar(32)"`
	Step      string    `gorm:"type:varchar(64)"` // шаг лестницы, подтвердивший выбор
	Reason    string    `gorm:"type:text"`
	Implicit  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

// LlmLog представляет лог запроса к LLM.
// Сохраняет промпт, ответ, модель и количество использованных токенов.
type LlmLog struct {
	ID           uint    `gorm:"primaryKey"`
	RunID        *string `gorm:"type:varchar(36);index"` // ID прогона (опционально)
	Purpose      string  `gorm:"type:varchar(32);not null"`
	PromptText   string  `gorm:"type:text;not null"`
	ResponseText string  `gorm:"type:text"`
	Model        string  `gorm:"type:varchar(64)"`
	TokensUsed   int
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}
