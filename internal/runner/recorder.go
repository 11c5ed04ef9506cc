package runner

import "context"

// Recorder история прогонов (например, в базе данных).
type Recorder interface {
	StartRun(ctx context.Context, runID, kind, target string, dryRun bool) error
	RecordItem(ctx context.Context, runID string, rec ItemRecord) error
	FinishRun(ctx context.Context, sum Summary) error
}

type NopRecorder struct{}

func (NopRecorder) StartRun(context.Context, string, string, string, bool) error { return nil }
func (NopRecorder) RecordItem(context.Context, string, ItemRecord) error         { return nil }
func (NopRecorder) FinishRun(context.Context, Summary) error                     { return nil }
