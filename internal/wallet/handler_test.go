package wallet

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaizencycle/mobius-browser-shell/internal/handlers"
	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/ledger"
	"github.com/kaizencycle/mobius-browser-shell/internal/middleware"
	"github.com/kaizencycle/mobius-browser-shell/internal/validation"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestHandler(t *testing.T, gii float64) (*Handler, *integrity.Static) {
	t.Helper()
	provider := integrity.NewStatic(gii)
	svc := ledger.NewService(ledger.NewMemoryStore(), provider, quietLog)
	v, err := validation.New()
	require.NoError(t, err)
	return NewHandler(svc, v, quietLog), provider
}

func do(fn http.HandlerFunc, method, target, body, userID string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if userID != "" {
		req = req.WithContext(middleware.WithUser(req.Context(), userID, "learner"))
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestEarnThenWallet(t *testing.T) {
	h, _ := newTestHandler(t, 0.95)

	rec := do(h.Earn, http.MethodPost, "/api/v1/mic/earn",
		`{"source":"learning_module_completion","meta":{"module_id":"constitutional-ai-101","accuracy":0.85,"mic_earned":42}}`, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[ReceiptResponse](t, rec)
	assert.Equal(t, 42.0, receipt.Amount)
	assert.Equal(t, "LEARN", receipt.Reason)
	assert.Equal(t, "ledger:"+receipt.ID, receipt.LedgerProof)
	assert.Equal(t, 42.0, receipt.NewBalance)

	rec = do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `{"source":"reflection_spark"}`, "u1")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(h.GetWallet, http.MethodGet, "/api/v1/mic/wallet", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	wallet := decode[WalletResponse](t, rec)
	assert.Equal(t, "u1", wallet.UserID)
	assert.Equal(t, 46.0, wallet.Balance)
	assert.Equal(t, 46.0, wallet.TotalEarned)
	assert.Equal(t, 2, wallet.EventCount)
	assert.NotNil(t, wallet.LastUpdated)
	assert.Equal(t, 0.95, wallet.GII)
	assert.False(t, wallet.CircuitBreakerActive)
}

func TestEarn_Errors(t *testing.T) {
	h, provider := newTestHandler(t, 0.95)

	rec := do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `{"meta":{}}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[handlers.ErrorResponse](t, rec).Error)

	rec = do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `{"source":"learning_module_completion","meta":{"mic_earned":5}}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "module_id is required by schema")

	rec = do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `not json`, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `{"source":"reflection_spark"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	provider.Set(0.40)
	rec = do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `{"source":"reflection_spark"}`, "u1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[handlers.ErrorResponse](t, rec)
	assert.Equal(t, "circuit_breaker_active", body.Error)
	assert.Contains(t, body.Message, "0.400")
}

func TestListEvents_Limits(t *testing.T) {
	h, _ := newTestHandler(t, 0.95)
	for i := 0; i < 3; i++ {
		rec := do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `{"source":"oaa_tutor_question"}`, "u1")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(h.ListEvents, http.MethodGet, "/api/v1/mic/events?limit=2", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]EntryResponse](t, rec), 2)

	rec = do(h.ListEvents, http.MethodGet, "/api/v1/mic/events?limit=1000", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]EntryResponse](t, rec), 3)

	rec = do(h.ListEvents, http.MethodGet, "/api/v1/mic/events", "", "someone-else")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(h.ListEvents, http.MethodGet, "/api/v1/mic/events?limit=abc", "", "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h.ListEvents, http.MethodGet, "/api/v1/mic/events?offset=-1", "", "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLedger(t *testing.T) {
	h, _ := newTestHandler(t, 0.95)
	for i := 0; i < 3; i++ {
		rec := do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `{"source":"shield_module_complete"}`, "u1")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(h.GetLedger, http.MethodGet, "/api/v1/mic/ledger?limit=2", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LedgerResponse](t, rec)
	assert.Equal(t, 3, resp.TotalEntries)
	assert.Equal(t, 2, resp.Limit)
	assert.True(t, resp.HasMore)
	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, 45.0, resp.Summary.Balance)

	rec = do(h.GetLedger, http.MethodGet, "/api/v1/mic/ledger", "", "u1")
	resp = decode[LedgerResponse](t, rec)
	assert.Equal(t, ledger.DefaultHistoryLimit, resp.Limit)
	assert.False(t, resp.HasMore)
}

func TestHealth(t *testing.T) {
	h, provider := newTestHandler(t, 0.95)

	rec := do(h.Health, http.MethodGet, "/api/v1/mic/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 1.0, resp.GIIMultiplier)
	assert.Nil(t, resp.CircuitBreakerMessage)
	assert.Equal(t, 0.5, resp.Config.Thresholds.Halt)

	provider.Set(0.2)
	rec = do(h.Health, http.MethodGet, "/api/v1/mic/health", "", "")
	resp = decode[HealthResponse](t, rec)
	assert.Equal(t, "degraded", resp.Status)
	assert.True(t, resp.CircuitBreakerActive)
	require.NotNil(t, resp.CircuitBreakerMessage)
	assert.Contains(t, *resp.CircuitBreakerMessage, "halted")
}

func TestCorrectionAndStats(t *testing.T) {
	h, _ := newTestHandler(t, 0.95)
	rec := do(h.Earn, http.MethodPost, "/api/v1/mic/earn", `{"source":"reflection_epiphany"}`, "u1")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(h.CreateCorrection, http.MethodPost, "/api/v1/mic/admin/corrections",
		`{"user_id":"u1","amount":-2.5,"note":"duplicate mint"}`, "admin-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[ReceiptResponse](t, rec)
	assert.Equal(t, "CORRECTION", receipt.Reason)
	assert.Equal(t, 9.5, receipt.NewBalance)
	assert.Equal(t, "admin-1", receipt.Meta["corrected_by"])

	rec = do(h.CreateCorrection, http.MethodPost, "/api/v1/mic/admin/corrections",
		`{"user_id":"u1","amount":"-1.25","note":"string amount"}`, "admin-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	bad := []string{
		`{"user_id":"u1","amount":0,"note":"zero"}`,
		`{"user_id":"u1","amount":-1}`,
		`{"user_id":"","amount":-1,"note":"x"}`,
		`{"user_id":"u1","amount":"lots","note":"x"}`,
	}
	for _, body := range bad {
		rec = do(h.CreateCorrection, http.MethodPost, "/api/v1/mic/admin/corrections", body, "admin-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = do(h.LedgerStats, http.MethodGet, "/api/v1/mic/admin/ledger-stats", "", "admin-1")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[StatsResponse](t, rec)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 12.0, stats.TotalMinted)
	assert.Equal(t, 1, stats.UniqueUsers)
	assert.Equal(t, 2, stats.EntriesByReason["CORRECTION"])
	assert.Equal(t, 1, stats.EntriesBySource["reflection_epiphany"])
}
