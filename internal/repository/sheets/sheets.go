package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"nuttally/internal/model"
	"nuttally/internal/repository"
)

const (
	valueInputOption = "USER_ENTERED"
	insertDataOption = "INSERT_ROWS"
)

// TallyRepository appends tally rows to a Google Sheets range.
type TallyRepository struct {
	service       *gsheets.Service
	spreadsheetID string
	sheetRange    string
	initErr       error
}

// NewTallyRepository builds a Sheets client from a service account JSON blob.
// Missing configuration is not an error here: every AppendRow then reports
// repository.ErrMissingCredentials. A credential blob the client library
// rejects is remembered and returned from AppendRow.
func NewTallyRepository(ctx context.Context, spreadsheetID, sheetRange string, credentialsJSON []byte, opts ...option.ClientOption) *TallyRepository {
	r := &TallyRepository{
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
	}
	if spreadsheetID == "" || len(credentialsJSON) == 0 {
		return r
	}

	opts = append([]option.ClientOption{
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gsheets.SpreadsheetsScope),
	}, opts...)

	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		r.initErr = fmt.Errorf("failed to create sheets client: %w", err)
		return r
	}
	r.service = service
	return r
}

// NewTallyRepositoryWithService wraps an already configured Sheets service.
func NewTallyRepositoryWithService(service *gsheets.Service, spreadsheetID, sheetRange string) *TallyRepository {
	return &TallyRepository{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
	}
}

// Store states reported by State.
const (
	StateConfigured         = "configured"
	StateMissingCredentials = "missing_credentials"
	StateInvalidCredentials = "invalid_credentials"
)

// Configured reports whether a sheet and credentials were supplied. It is
// also true when the client library rejected those credentials; State tells
// the two apart.
func (r *TallyRepository) Configured() bool {
	return r.service != nil || r.initErr != nil
}

// State reports whether rows can be written, were never configured, or were
// configured with credentials the client library rejected.
func (r *TallyRepository) State() string {
	switch {
	case r.initErr != nil:
		return StateInvalidCredentials
	case r.service == nil:
		return StateMissingCredentials
	default:
		return StateConfigured
	}
}

// AppendRow appends one row after the last row of the configured range.
func (r *TallyRepository) AppendRow(ctx context.Context, row model.TallyRow) error {
	if r.initErr != nil {
		return r.initErr
	}
	if r.service == nil {
		return repository.ErrMissingCredentials
	}

	values := &gsheets.ValueRange{Values: [][]interface{}{row.Values()}}
	_, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, r.sheetRange, values).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify tags access and range rejections with repository.ErrPermissionDenied.
func classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("failed to append row: %w", err)
	}

	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
		return fmt.Errorf("%w: %s", repository.ErrPermissionDenied, apiMessage(apiErr))
	default:
		return fmt.Errorf("failed to append row: %s", apiMessage(apiErr))
	}
}

func apiMessage(apiErr *googleapi.Error) string {
	if apiErr.Message != "" {
		return fmt.Sprintf("%d %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Sprintf("%d %s", apiErr.Code, http.StatusText(apiErr.Code))
}
