package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"nuttally/internal/model"
	"nuttally/internal/repository"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *TallyRepository {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := gsheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("failed to create sheets service: %v", err)
	}
	return NewTallyRepositoryWithService(service, "sheet-1", "Sheet1!A1")
}

func testRow() model.TallyRow {
	return model.TallyRow{
		Timestamp: time.Date(2025, 3, 1, 9, 15, 0, 0, time.UTC),
		Filename:  "tray.jpg",
		Counts:    []int{2, 1},
		Total:     4,
	}
}

func TestAppendRow_Success(t *testing.T) {
	var got gsheets.ValueRange
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1/values/") || !strings.HasSuffix(r.URL.Path, ":append") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			t.Errorf("unexpected valueInputOption: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("insertDataOption") != "INSERT_ROWS" {
			t.Errorf("unexpected insertDataOption: %s", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRows":1}}`))
	})

	if err := repo.AppendRow(context.Background(), testRow()); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	if len(got.Values) != 1 {
		t.Fatalf("expected one row, got %d", len(got.Values))
	}
	values := got.Values[0]
	if len(values) != 5 {
		t.Fatalf("expected 5 values, got %v", values)
	}
	if values[0] != "2025-03-01 09:15:00" || values[1] != "tray.jpg" {
		t.Errorf("unexpected leading values: %v", values[:2])
	}
	// JSON numbers decode as float64.
	if values[2] != float64(2) || values[3] != float64(1) || values[4] != float64(4) {
		t.Errorf("unexpected count values: %v", values[2:])
	}
}

func TestAppendRow_PermissionDenied(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`))
	})

	err := repo.AppendRow(context.Background(), testRow())
	if !errors.Is(err, repository.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if !strings.Contains(err.Error(), "The caller does not have permission") {
		t.Errorf("expected provider message in error, got %v", err)
	}
}

func TestAppendRow_BadRangeIsPermissionClass(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"Unable to parse range: Missing!A1"}}`))
	})

	err := repo.AppendRow(context.Background(), testRow())
	if !errors.Is(err, repository.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestAppendRow_ServerErrorIsGeneric(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"backend unavailable"}}`))
	})

	err := repo.AppendRow(context.Background(), testRow())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, repository.ErrPermissionDenied) || errors.Is(err, repository.ErrMissingCredentials) {
		t.Fatalf("expected a generic write error, got %v", err)
	}
}

func TestNewTallyRepository_MissingConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		creds []byte
	}{
		{"no sheet id", "", []byte(`{"type":"service_account"}`)},
		{"no credentials", "sheet-1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewTallyRepository(context.Background(), tt.id, "Sheet1!A1", tt.creds)
			if repo.Configured() {
				t.Error("expected repository to be unconfigured")
			}
			if repo.State() != StateMissingCredentials {
				t.Errorf("expected state %s, got %s", StateMissingCredentials, repo.State())
			}
			err := repo.AppendRow(context.Background(), testRow())
			if !errors.Is(err, repository.ErrMissingCredentials) {
				t.Fatalf("expected ErrMissingCredentials, got %v", err)
			}
		})
	}
}

func TestNewTallyRepository_InvalidCredentials(t *testing.T) {
	repo := NewTallyRepository(context.Background(), "sheet-1", "Sheet1!A1", []byte("not json"))
	if repo.State() != StateInvalidCredentials {
		t.Errorf("expected state %s, got %s", StateInvalidCredentials, repo.State())
	}

	err := repo.AppendRow(context.Background(), testRow())
	if err == nil {
		t.Fatal("expected error for invalid credentials")
	}
	if errors.Is(err, repository.ErrMissingCredentials) {
		t.Fatalf("invalid credentials must not be reported as missing: %v", err)
	}
}

func TestTallyRepository_StateConfigured(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {})
	if repo.State() != StateConfigured || !repo.Configured() {
		t.Errorf("expected configured repository, got state %s", repo.State())
	}
}
