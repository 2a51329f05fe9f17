package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"closeout/internal/auth"
	"closeout/internal/closing"
	"closeout/internal/config"
	closeouthttp "closeout/internal/http"
	applog "closeout/internal/log"
	"closeout/internal/reports"
	"closeout/internal/services"
	"closeout/internal/storage"
)

// memStore backs both the closing service and the report service in tests.
type memStore struct {
	records map[string]closing.DailyClosing
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]closing.DailyClosing)}
}

func (m *memStore) SaveClosing(_ context.Context, rec closing.DailyClosing) error {
	m.records[rec.ID] = rec
	return nil
}

func (m *memStore) UpdateClosing(_ context.Context, rec closing.DailyClosing) error {
	if _, ok := m.records[rec.ID]; !ok {
		return storage.ErrNotFound
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *memStore) DeleteClosing(_ context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memStore) GetClosing(_ context.Context, id string) (closing.DailyClosing, error) {
	rec, ok := m.records[id]
	if !ok {
		return closing.DailyClosing{}, fmt.Errorf("closing %s: %w", id, storage.ErrNotFound)
	}
	return rec, nil
}

func (m *memStore) GetClosingByDate(_ context.Context, date closing.Date) (closing.DailyClosing, error) {
	for _, rec := range m.records {
		if rec.Date.String() == date.String() {
			return rec, nil
		}
	}
	return closing.DailyClosing{}, fmt.Errorf("closing for %s: %w", date, storage.ErrNotFound)
}

func (m *memStore) ListClosings(_ context.Context, from, to closing.Date) ([]closing.DailyClosing, error) {
	var out []closing.DailyClosing
	for _, rec := range m.records {
		if !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) ListPurchases(context.Context, closing.Date, closing.Date) ([]reports.LedgerEntry, error) {
	return nil, nil
}

func (m *memStore) ListExpenses(context.Context, closing.Date, closing.Date) ([]reports.LedgerEntry, error) {
	return nil, nil
}

func (m *memStore) ListPayroll(context.Context, closing.Date, closing.Date) ([]reports.LedgerEntry, error) {
	return nil, nil
}

type noopAudit struct{}

func (noopAudit) LogAction(context.Context, string, string, string, string) {}

const testSecret = "let-me-edit"

func newTestServer(t *testing.T) (*closeouthttp.Server, *memStore) {
	t.Helper()

	store := newMemStore()
	logger := applog.New(applog.Config{Level: slog.LevelError})
	engine := closing.NewEngine(closing.TerminalConfig{
		Terminals: []string{"TERM-01", "TERM-02"},
		Networks:  closing.DefaultNetworks(),
	})

	hash, err := auth.HashSecret(testSecret)
	require.NoError(t, err)

	svc := services.NewClosingService(engine, store, noopAudit{}, auth.NewSecretGate(hash), nil, logger)
	reportSvc := reports.NewService(store, logger)

	cfg := config.Load()
	cfg.RequestsPerMinute = 1000

	return closeouthttp.NewServer(cfg, svc, reportSvc, logger), store
}

func doJSON(t *testing.T, srv *closeouthttp.Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func validBody() map[string]any {
	return map[string]any{
		"actor": "cashier-anwar",
		"date":  "2025-06-14",
		"cashDenominations": map[string]int{
			"500": 1, "100": 1,
		},
		"terminalDetails": map[string]map[string]float64{
			"TERM-01": {"mada": 400},
		},
		"posInputs": map[string]float64{
			"cash": 580, "mada": 350, "discount": 50, "tips": 20,
		},
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateClosing(t *testing.T) {
	srv, store := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/closings", validBody(), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var rec closing.DailyClosing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "2025-06-14", rec.Date.String())
	assert.Equal(t, 600.0, rec.CashActual)
	assert.Equal(t, 400.0, rec.CardActual)
	assert.Equal(t, 930.0, rec.TotalSystem)
	assert.Equal(t, 70.0, rec.Variance)
	assert.Contains(t, store.records, rec.ID)
}

func TestCreateClosing_BadDate(t *testing.T) {
	srv, _ := newTestServer(t)

	body := validBody()
	body["date"] = "14/06/2025"
	rr := doJSON(t, srv, http.MethodPost, "/api/closings", body, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateClosing_EmptyInputs(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/closings", map[string]any{
		"actor": "a", "date": "2025-06-14",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateClosing_DuplicateDayConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/closings", validBody(), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, srv, http.MethodPost, "/api/closings", validBody(), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	forced := validBody()
	forced["force"] = true
	rr = doJSON(t, srv, http.MethodPost, "/api/closings", forced, nil)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestPreviewClosing_DoesNotPersist(t *testing.T) {
	srv, store := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/closings/preview", validBody(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var rec closing.Reconciliation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, 70.0, rec.Variance)
	assert.Empty(t, store.records)
}

func TestGetClosing_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/closings/no-such-id", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetClosingByDate(t *testing.T) {
	srv, _ := newTestServer(t)
	doJSON(t, srv, http.MethodPost, "/api/closings", validBody(), nil)

	rr := doJSON(t, srv, http.MethodGet, "/api/closings/by-date/2025-06-14", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/closings/by-date/2025-06-15", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListClosings_RangeValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/closings?from=2025-06-14&to=2025-06-01", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/closings?from=2025-06-01&to=2025-06-30", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestUpdateClosing_RequiresSecret(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/closings", validBody(), nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var rec closing.DailyClosing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))

	rr = doJSON(t, srv, http.MethodPut, "/api/closings/"+rec.ID, validBody(), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	body := validBody()
	body["posInputs"] = map[string]float64{"cash": 600, "mada": 400}
	rr = doJSON(t, srv, http.MethodPut, "/api/closings/"+rec.ID, body, map[string]string{
		"X-Edit-Secret": testSecret,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated closing.DailyClosing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, 0.0, updated.Variance)
}

func TestDeleteClosing(t *testing.T) {
	srv, store := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/closings", validBody(), nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var rec closing.DailyClosing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))

	rr = doJSON(t, srv, http.MethodDelete, "/api/closings/"+rec.ID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, store.records, rec.ID)

	rr = doJSON(t, srv, http.MethodDelete, "/api/closings/"+rec.ID+"?actor=manager-huda", nil, map[string]string{
		"X-Edit-Secret": testSecret,
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotContains(t, store.records, rec.ID)
}

func TestRangeReport(t *testing.T) {
	srv, _ := newTestServer(t)
	doJSON(t, srv, http.MethodPost, "/api/closings", validBody(), nil)

	rr := doJSON(t, srv, http.MethodGet, "/api/reports/range?from=2025-06-01&to=2025-06-30", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var summary reports.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.ClosingCount)
	assert.Equal(t, 930.0, summary.TotalSystem)
	assert.Equal(t, 70.0, summary.Variance)
}

func TestTerminalConfig(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/config/terminals", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Terminals []string `json:"terminals"`
		Networks  []string `json:"networks"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{"TERM-01", "TERM-02"}, body.Terminals)
	assert.Equal(t, []string{"mada", "visa", "master", "amex", "gcci"}, body.Networks)
}
