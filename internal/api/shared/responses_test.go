package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]interface{}{"message": "success", "data": 123})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "success", response["message"])
	assert.Equal(t, float64(123), response["data"])
}

func TestRespondWithJSONEncodingError(t *testing.T) {
	log, buf := logger.GetTestLogger(t)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), log))
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	logger.AssertLogContains(t, buf, "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, "test-trace-id")
	req := httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusBadRequest, "Invalid request")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Invalid request", response.Error)
	assert.Equal(t, "test-trace-id", response.TraceID)
	assert.Nil(t, response.Details)
}

func TestErrorLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, errorLogLevel(http.StatusInternalServerError, false))
	assert.Equal(t, slog.LevelError, errorLogLevel(http.StatusServiceUnavailable, true))
	assert.Equal(t, slog.LevelWarn, errorLogLevel(http.StatusTooManyRequests, false))
	assert.Equal(t, slog.LevelWarn, errorLogLevel(http.StatusUnauthorized, true))
	assert.Equal(t, slog.LevelDebug, errorLogLevel(http.StatusConflict, false))
}

func TestRespondWithErrorAndLogHidesCause(t *testing.T) {
	var out strings.Builder
	log := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := context.WithValue(context.Background(), TraceIDKey, "trace-42")
	ctx = logger.WithLogger(ctx, log)
	req := httptest.NewRequest(http.MethodPost, "/api/topics/x/purchase", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	cause := errors.New("pq: relation wallets does not exist")
	RespondWithErrorAndLog(w, req, http.StatusInternalServerError, "Failed to purchase topic", cause)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation wallets")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to purchase topic", body.Error)
	assert.Equal(t, "trace-42", body.TraceID)

	logged := out.String()
	assert.Contains(t, logged, "level=ERROR")
	assert.Contains(t, logged, "trace_id=trace-42")
	assert.Contains(t, logged, "error_type=*errors.errorString")
}

func TestRespondWithErrorAndLogDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithErrorAndLog(w, req, http.StatusPaymentRequired, "Insufficient funds", errors.New("short"),
		WithDetails(map[string][]string{"short": {"ruby"}}))

	var body struct {
		Error   string              `json:"error"`
		Details map[string][]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"ruby"}, body.Details["short"])
}
