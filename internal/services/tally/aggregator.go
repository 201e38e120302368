package tally

import (
	"context"
	"errors"
	"time"

	"nuttally/internal/logger"
	"nuttally/internal/model"
	"nuttally/internal/repository"
)

// Result is the aggregated row plus what happened when it was persisted.
// Row is always populated, whatever the Outcome.
type Result struct {
	Row         model.TallyRow
	Diagnostics []string
	Outcome     model.Outcome
}

// Aggregator turns provider payloads into tally rows and records them.
type Aggregator struct {
	vocab        model.Vocabulary
	store        repository.TallyRepository
	storeTimeout time.Duration
	now          func() time.Time
	logger       *logger.Logger
}

// NewAggregator creates an Aggregator over a fixed vocabulary.
func NewAggregator(vocab model.Vocabulary, store repository.TallyRepository, storeTimeout time.Duration, logger *logger.Logger) *Aggregator {
	return &Aggregator{
		vocab:        vocab,
		store:        store,
		storeTimeout: storeTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// Vocabulary returns the vocabulary rows are tallied against.
func (a *Aggregator) Vocabulary() model.Vocabulary {
	return a.vocab
}

// BuildRow extracts and counts detections without touching the store.
func (a *Aggregator) BuildRow(raw model.RawResult, submissionID string) (model.TallyRow, []string) {
	detections, diagnostics := Extract(raw)
	counts, total := Count(detections, a.vocab)

	return model.TallyRow{
		Timestamp: a.now(),
		Filename:  submissionID,
		Counts:    counts,
		Total:     total,
	}, diagnostics
}

// Aggregate builds the row and makes one attempt to persist it. Store
// failures are folded into the Outcome and never returned as errors.
func (a *Aggregator) Aggregate(ctx context.Context, raw model.RawResult, submissionID string) Result {
	row, diagnostics := a.BuildRow(raw, submissionID)
	return Result{
		Row:         row,
		Diagnostics: diagnostics,
		Outcome:     a.persist(ctx, row),
	}
}

func (a *Aggregator) persist(ctx context.Context, row model.TallyRow) model.Outcome {
	if a.store == nil {
		a.logger.Warning("No tally store configured, %s not saved", row.Filename)
		return model.Outcome{Status: model.OutcomeMissingCredentials}
	}

	if a.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.storeTimeout)
		defer cancel()
	}

	err := a.store.AppendRow(ctx, row)
	outcome := Classify(err)

	switch outcome.Status {
	case model.OutcomeSaved:
		a.logger.Info("Saved tally for %s: total=%d", row.Filename, row.Total)
	case model.OutcomeMissingCredentials:
		a.logger.Warning("Sheet credentials not configured, tally for %s not saved", row.Filename)
	default:
		a.logger.Error("Failed to save tally for %s (%s): %s", row.Filename, outcome.Status, outcome.Reason)
	}
	return outcome
}

// Classify maps a store error onto a persistence outcome.
func Classify(err error) model.Outcome {
	switch {
	case err == nil:
		return model.Outcome{Status: model.OutcomeSaved}
	case errors.Is(err, repository.ErrMissingCredentials):
		return model.Outcome{Status: model.OutcomeMissingCredentials}
	case errors.Is(err, repository.ErrPermissionDenied):
		return model.Outcome{Status: model.OutcomePermissionDenied, Reason: model.TruncateReason(err.Error())}
	default:
		return model.Outcome{Status: model.OutcomeWriteFailed, Reason: model.TruncateReason(err.Error())}
	}
}
