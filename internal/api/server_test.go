package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmansoor/regprobe/internal/clock/system"
	"github.com/hmansoor/regprobe/internal/config"
	"github.com/hmansoor/regprobe/internal/events"
	"github.com/hmansoor/regprobe/internal/events/sinks"
	"github.com/hmansoor/regprobe/internal/id/uuid"
	"github.com/hmansoor/regprobe/internal/search"
)

type noMatchQuerier struct{}

func (noMatchQuerier) Query(context.Context, string, time.Time) (search.Outcome, error) {
	return search.Outcome{
		StatusCode: http.StatusOK,
		Body:       "<html>NO RECORD FOUND, PLEASE CONTACT EXCISE OFFICE</html>",
	}, nil
}

// consoleEmitter feeds events straight into the memory sink, bypassing the
// hub's batching so tests observe events synchronously.
type consoleEmitter struct {
	sink *sinks.MemorySink
}

func (e consoleEmitter) Emit(ev events.Event) {
	_ = e.sink.Consume(context.Background(), []events.Event{ev})
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080},
		Search: config.SearchConfig{
			Endpoint:       "https://lookup.example.com/search",
			TimeoutSeconds: 10,
			DefaultWorkers: 2,
			MaxWorkers:     8,
		},
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *sinks.MemorySink) {
	t.Helper()
	console := sinks.NewMemorySink(100, 10)
	coordinator := search.NewCoordinator(
		noMatchQuerier{},
		nil,
		consoleEmitter{sink: console},
		system.New(),
		uuid.New(),
		search.Options{Logger: zap.NewNop()},
	)
	return NewServer(coordinator, console, cfg, zap.NewNop()), console
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := get(srv.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(srv.Handler(), "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStartSearchValidation(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/searches", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, "/v1/searches", map[string]any{
		"identifier": "abc-123",
		"start_date": "not-a-date",
		"end_date":   "2024-01-10",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	workers := 0
	rec = postJSON(t, h, "/v1/searches", map[string]any{
		"identifier": "abc-123",
		"start_date": "2024-01-01",
		"end_date":   "2024-01-10",
		"workers":    workers,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, "/v1/searches", map[string]any{
		"identifier": "abc-123",
		"start_date": "2024-01-01",
		"end_date":   "2024-01-10",
		"workers":    100,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "workers must be <= 8")
}

func TestStartSearchNormalizesIdentifier(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := postJSON(t, srv.Handler(), "/v1/searches", map[string]any{
		"identifier": "  abc-123  ",
		"start_date": "2024-01-01",
		"end_date":   "2024-01-02",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp startSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ABC-123", resp.Identifier)
	require.NotEmpty(t, resp.RunID)
	require.Equal(t, 2, resp.TotalDays)
	require.Equal(t, 2, resp.Workers)
}

func TestCurrentSearchLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Handler()

	rec := get(h, "/v1/searches/current")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = postJSON(t, h, "/v1/searches", map[string]any{
		"identifier": "ABC-123",
		"start_date": "2024-01-01",
		"end_date":   "2024-01-03",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		rec := get(h, "/v1/searches/current")
		if rec.Code != http.StatusOK {
			return false
		}
		var state searchStateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
			return false
		}
		return !state.Running
	}, 5*time.Second, 10*time.Millisecond)

	rec = get(h, "/v1/searches/current")
	require.Equal(t, http.StatusOK, rec.Code)
	var state searchStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Equal(t, string(search.ResultNotFound), state.Result)
	require.Equal(t, int64(3), state.Checked)
	require.InDelta(t, 1.0, state.Progress, 0.001)
}

func TestCancelSearch(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/searches/current/cancel", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec2 := postJSON(t, h, "/v1/searches", map[string]any{
		"identifier": "ABC-123",
		"start_date": "2024-01-01",
		"end_date":   "2024-12-31",
	})
	require.Equal(t, http.StatusAccepted, rec2.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/searches/current/cancel", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		rec := get(h, "/v1/searches/current")
		var state searchStateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
			return false
		}
		return !state.Running
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEventsEndpoints(t *testing.T) {
	srv, console := newTestServer(t, testConfig())
	h := srv.Handler()

	require.NoError(t, console.Consume(context.Background(), []events.Event{{
		RunID:   "run-1",
		TS:      time.Now(),
		Level:   events.LevelInfo,
		Worker:  1,
		Message: "worker 1 checking 2024-01-01",
	}}))

	rec := get(h, "/v1/events")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Events []eventResponse `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	require.Equal(t, "worker 1 checking 2024-01-01", resp.Events[0].Message)
	require.Equal(t, "INFO", resp.Events[0].Level)

	req := httptest.NewRequest(http.MethodDelete, "/v1/events", nil)
	del := httptest.NewRecorder()
	h.ServeHTTP(del, req)
	require.Equal(t, http.StatusNoContent, del.Code)

	rec = get(h, "/v1/events")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Events)
}

func TestAPIKeyMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	srv, _ := newTestServer(t, cfg)
	h := srv.Handler()

	rec := get(h, "/healthz")
	require.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-API-Key", "secret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	require.Equal(t, http.StatusOK, ok.Code)
}
