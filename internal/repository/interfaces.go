package repository

import (
	"context"
	"errors"

	"nuttally/internal/model"
)

var (
	// ErrMissingCredentials means the store is not configured; nothing was attempted.
	ErrMissingCredentials = errors.New("store credentials not configured")
	// ErrPermissionDenied marks rejections caused by access rights or an invalid target range.
	ErrPermissionDenied = errors.New("store permission denied")
)

// TallyRepository appends tally rows to the tabular store.
type TallyRepository interface {
	AppendRow(ctx context.Context, row model.TallyRow) error
}

// SubmissionRepository defines the interface for the local submission ledger.
type SubmissionRepository interface {
	// Create operations
	Insert(sub *model.Submission) error

	// Read operations
	GetByID(id string) (*model.Submission, error)
	GetAll(filter *model.SubmissionFilter) ([]model.Submission, error)
	GetTotalCount(filter *model.SubmissionFilter) (int, error)
	GetStats() (*model.SubmissionStats, error)

	// Delete operations
	DeleteAll() error
}
