package funnel

import (
	"context"
	"time"

	"igfunnel/pkg/jobs"
	"igfunnel/pkg/record"
)

// ContentFetcher supplies the remote data the pipeline stages consume.
// *scrapeapi.Fetcher satisfies it; tests use scripted fakes.
type ContentFetcher interface {
	Posts(ctx context.Context, username string, desired int) ([]record.Record, error)
	Reels(ctx context.Context, username string, desired int) ([]record.Record, error)
	Comments(ctx context.Context, postURL string, desired int) ([]record.Record, error)
	Profile(ctx context.Context, username string) (record.Record, error)
}

// JobRunner runs one remote comment-extraction job to completion.
// *jobs.Client satisfies it.
type JobRunner interface {
	RunToCompletion(ctx context.Context, input jobs.Input, timeout time.Duration) ([]record.Record, error)
}

// StageRecorder persists per-stage outcomes. *runstore.Store satisfies
// it; a nil recorder disables persistence.
type StageRecorder interface {
	RecordStage(runID, stage string, position, input, survivors, dropped int, duration time.Duration) error
}
