package services

import (
	"context"
	"encoding/json"

	"nuttally/internal/logger"
	"nuttally/internal/model"
	"nuttally/internal/repository"
	"nuttally/internal/services/tally"
	"nuttally/internal/services/websocket"

	"github.com/google/uuid"
)

// Inferer obtains raw detections for one image.
type Inferer interface {
	Infer(ctx context.Context, image []byte, submissionID string) (model.RawResult, error)
}

// Manager runs one submission through inference and aggregation, then
// records it in the local ledger and pushes it to live viewers.
type Manager struct {
	inferer    Inferer
	aggregator *tally.Aggregator
	ledger     repository.SubmissionRepository
	hub        *websocket.HubService
	logger     *logger.Logger
}

func NewManager(inferer Inferer, aggregator *tally.Aggregator, ledger repository.SubmissionRepository, hub *websocket.HubService, logger *logger.Logger) *Manager {
	return &Manager{
		inferer:    inferer,
		aggregator: aggregator,
		ledger:     ledger,
		hub:        hub,
		logger:     logger,
	}
}

// Analyze processes one image. Only inference failures are returned as
// errors; a row that could not be stored still comes back with its counts.
func (m *Manager) Analyze(ctx context.Context, image []byte, filename string) (*model.Submission, error) {
	raw, err := m.inferer.Infer(ctx, image, filename)
	if err != nil {
		m.logger.Error("Inference failed for %s: %v", filename, err)
		return nil, err
	}

	result := m.aggregator.Aggregate(ctx, raw, filename)
	submission := &model.Submission{
		ID:          uuid.NewString(),
		Row:         result.Row,
		ClassCounts: result.Row.ClassCounts(m.aggregator.Vocabulary()),
		Outcome:     result.Outcome,
		Diagnostics: result.Diagnostics,
	}

	m.logger.Info("📊 %s: total=%d counts=%v outcome=%s", filename, result.Row.Total, result.Row.Counts, result.Outcome.Status)

	if m.ledger != nil {
		if err := m.ledger.Insert(submission); err != nil {
			m.logger.Error("Failed to record submission %s in ledger: %v", submission.ID, err)
		}
	}

	m.publish(submission)
	return submission, nil
}

// Classes returns the vocabulary column order.
func (m *Manager) Classes() []string {
	return m.aggregator.Vocabulary().Labels()
}

func (m *Manager) GetLedger() repository.SubmissionRepository {
	return m.ledger
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}

func (m *Manager) publish(submission *model.Submission) {
	if m.hub == nil {
		return
	}
	msg, err := json.Marshal(submission)
	if err != nil {
		m.logger.Error("Failed to encode live update: %v", err)
		return
	}
	m.hub.Broadcast(msg)
}
