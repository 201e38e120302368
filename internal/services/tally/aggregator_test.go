package tally

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"nuttally/internal/logger"
	"nuttally/internal/model"
	"nuttally/internal/repository"
)

type fakeStore struct {
	err      error
	rows     []model.TallyRow
	deadline bool
}

func (f *fakeStore) AppendRow(ctx context.Context, row model.TallyRow) error {
	_, f.deadline = ctx.Deadline()
	f.rows = append(f.rows, row)
	return f.err
}

var fixedNow = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestAggregator(store repository.TallyRepository, classes ...string) (*Aggregator, *bytes.Buffer) {
	var logs bytes.Buffer
	a := NewAggregator(model.NewVocabulary(classes), store, time.Second, logger.NewWithWriter(&logs))
	a.now = func() time.Time { return fixedNow }
	return a, &logs
}

const exampleRaw = `{"predictions":[{"class":"walnut"},{"class":"almond"},{"class":"walnut"},{"class":"pistachio"}]}`

func TestAggregate_Saved(t *testing.T) {
	store := &fakeStore{}
	a, _ := newTestAggregator(store, "walnut", "almond")

	result := a.Aggregate(context.Background(), model.RawResult(exampleRaw), "tray 1.jpg")

	if result.Outcome.Status != model.OutcomeSaved {
		t.Fatalf("expected saved outcome, got %+v", result.Outcome)
	}
	want := []interface{}{"2025-09-01 10:00:00", "tray 1.jpg", 2, 1, 4}
	if !reflect.DeepEqual(result.Row.Values(), want) {
		t.Errorf("expected row %v, got %v", want, result.Row.Values())
	}
	if len(store.rows) != 1 || !reflect.DeepEqual(store.rows[0], result.Row) {
		t.Errorf("expected the returned row to be written, got %v", store.rows)
	}
	if !store.deadline {
		t.Error("expected the store call to carry a deadline")
	}
}

func TestAggregate_RowLengthMatchesVocabulary(t *testing.T) {
	for k := 0; k <= 6; k++ {
		classes := make([]string, k)
		for i := range classes {
			classes[i] = fmt.Sprintf("class-%d", i)
		}
		a, _ := newTestAggregator(&fakeStore{}, classes...)

		for _, raw := range []string{`{}`, exampleRaw, `[{"predictions":{"predictions":[{"class":"class-0"}]}}]`} {
			result := a.Aggregate(context.Background(), model.RawResult(raw), "x.jpg")
			if got := len(result.Row.Values()); got != 3+k {
				t.Errorf("k=%d raw=%s: expected row length %d, got %d", k, raw, 3+k, got)
			}
		}
	}
}

func TestAggregate_MissingCredentialsKeepsRow(t *testing.T) {
	store := &fakeStore{err: repository.ErrMissingCredentials}
	a, logs := newTestAggregator(store, "walnut", "almond")

	result := a.Aggregate(context.Background(), model.RawResult(exampleRaw), "tray.jpg")

	if result.Outcome.Status != model.OutcomeMissingCredentials {
		t.Fatalf("expected missing_credentials, got %+v", result.Outcome)
	}
	if !reflect.DeepEqual(result.Row.Counts, []int{2, 1}) || result.Row.Total != 4 {
		t.Errorf("expected populated row, got %+v", result.Row)
	}
	if !strings.Contains(logs.String(), "WARNING") {
		t.Errorf("expected a warning log, got %q", logs.String())
	}
}

func TestAggregate_NilStoreIsMissingCredentials(t *testing.T) {
	a, _ := newTestAggregator(nil, "walnut")

	result := a.Aggregate(context.Background(), model.RawResult(exampleRaw), "tray.jpg")
	if result.Outcome.Status != model.OutcomeMissingCredentials {
		t.Fatalf("expected missing_credentials, got %+v", result.Outcome)
	}
	if result.Row.Total != 4 {
		t.Errorf("expected total 4, got %d", result.Row.Total)
	}
}

func TestAggregate_PermissionDeniedTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	store := &fakeStore{err: fmt.Errorf("%w: 403 %s", repository.ErrPermissionDenied, long)}
	a, logs := newTestAggregator(store, "walnut")

	result := a.Aggregate(context.Background(), model.RawResult(exampleRaw), "tray.jpg")

	if result.Outcome.Status != model.OutcomePermissionDenied {
		t.Fatalf("expected permission_denied, got %+v", result.Outcome)
	}
	if len(result.Outcome.Reason) > model.MaxReasonLength {
		t.Errorf("reason not truncated: %d bytes", len(result.Outcome.Reason))
	}
	if !strings.HasPrefix(result.Outcome.Reason, "store permission denied: 403") {
		t.Errorf("unexpected reason %q", result.Outcome.Reason)
	}
	if result.Row.Counts[0] != 2 {
		t.Errorf("expected counts to survive the failure, got %v", result.Row.Counts)
	}
	if !strings.Contains(logs.String(), "ERROR") {
		t.Errorf("expected an error log, got %q", logs.String())
	}
}

func TestAggregate_GenericWriteFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset by peer")}
	a, _ := newTestAggregator(store, "walnut")

	result := a.Aggregate(context.Background(), model.RawResult(exampleRaw), "tray.jpg")

	if result.Outcome.Status != model.OutcomeWriteFailed {
		t.Fatalf("expected write_failed, got %+v", result.Outcome)
	}
	if result.Outcome.Reason != "connection reset by peer" {
		t.Errorf("unexpected reason %q", result.Outcome.Reason)
	}
}

func TestAggregate_UsesAggregationTime(t *testing.T) {
	a, _ := newTestAggregator(&fakeStore{}, "walnut")
	calls := 0
	a.now = func() time.Time {
		calls++
		return fixedNow.Add(time.Duration(calls) * time.Hour)
	}

	first := a.Aggregate(context.Background(), model.RawResult(exampleRaw), "a.jpg")
	second := a.Aggregate(context.Background(), model.RawResult(exampleRaw), "b.jpg")

	if !second.Row.Timestamp.After(first.Row.Timestamp) {
		t.Errorf("expected timestamps from the clock at row construction, got %v then %v",
			first.Row.Timestamp, second.Row.Timestamp)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want model.OutcomeStatus
	}{
		{nil, model.OutcomeSaved},
		{repository.ErrMissingCredentials, model.OutcomeMissingCredentials},
		{fmt.Errorf("wrapped: %w", repository.ErrMissingCredentials), model.OutcomeMissingCredentials},
		{fmt.Errorf("%w: 404 not found", repository.ErrPermissionDenied), model.OutcomePermissionDenied},
		{context.DeadlineExceeded, model.OutcomeWriteFailed},
		{errors.New("boom"), model.OutcomeWriteFailed},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got.Status != tt.want {
			t.Errorf("Classify(%v) = %s, expected %s", tt.err, got.Status, tt.want)
		}
	}
}
