package database

import (
	"context"
	"time"

	"talentAgent/internal/runner"
	"talentAgent/internal/workflow"

	"gorm.io/gorm"
)

const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusInterrupted = "interrupted"
)

// RunRepository пишет историю прогонов: реализует runner.Recorder и llm.Logger.
type RunRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

func (r *RunRepository) StartRun(ctx context.Context, runID, kind, target string, dryRun bool) error {
	return r.db.WithContext(ctx).Create(&Run{
		ID:        runID,
		Kind:      kind,
		Target:    target,
		DryRun:    dryRun,
		Status:    StatusRunning,
		StartedAt: r.now().UTC(),
	}).Error
}

func (r *RunRepository) RecordItem(ctx context.Context, runID string, rec runner.ItemRecord) error {
	return r.db.WithContext(ctx).Create(itemResult(runID, rec)).Error
}

func (r *RunRepository) FinishRun(ctx context.Context, sum runner.Summary) error {
	return r.db.WithContext(ctx).Model(&Run{}).
		Where("id = ?", sum.RunID).
		Updates(finishUpdates(sum)).Error
}

func (r *RunRepository) LogLLMRequest(ctx context.Context, runID, purpose, promptText, responseText, model string, tokensUsed int) error {
	entry := LlmLog{
		Purpose:      purpose,
		PromptText:   promptText,
		ResponseText: responseText,
		Model:        model,
		TokensUsed:   tokensUsed,
	}
	if runID != "" {
		entry.RunID = &runID
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	if err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// FailedItems элементы прогона с итогом failed или unknown.
func (r *RunRepository) FailedItems(ctx context.Context, runID string) ([]ItemResult, error) {
	var items []ItemResult
	err := r.db.WithContext(ctx).
		Where("run_id = ? AND outcome IN ?", runID, []string{workflow.Failed.String(), workflow.Unknown.String()}).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func itemResult(runID string, rec runner.ItemRecord) *ItemResult {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	return &ItemResult{
		RunID:     runID,
		ItemID:    rec.ItemID,
		URL:       rec.URL,
		Page:      rec.Page,
		Outcome:   rec.Outcome,
		Phase:     rec.Phase,
		Step:      rec.Step,
		Reason:    rec.Reason,
		Implicit:  rec.Implicit,
		CreatedAt: at.UTC(),
	}
}

func finishUpdates(sum runner.Summary) map[string]any {
	status := StatusCompleted
	if sum.Interrupted {
		status = StatusInterrupted
	}
	finished := sum.FinishedAt.UTC()
	c := sum.Counters
	return map[string]any{
		"status":       status,
		"pages":        sum.Pages,
		"seen":         c.Seen,
		"succeeded":    c.Succeeded,
		"already_done": c.AlreadyDone,
		"skipped":      c.Skipped,
		"failed":       c.Failed,
		"unknown":      c.Unknown,
		"finished_at":  &finished,
	}
}

var _ runner.Recorder = (*RunRepository)(nil)
