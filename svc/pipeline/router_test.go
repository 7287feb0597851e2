package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/queue"
	"github.com/dmitrymomot/agrohub/pkg/requestid"
	"github.com/dmitrymomot/agrohub/svc/pipeline"
	"github.com/dmitrymomot/agrohub/svc/prediction"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRouter_Jobs(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	router := h.pipeline.Router(h.jobs)

	rec, env := do(t, router, http.MethodPost, "/jobs/predictions", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestid.Header))

	var created struct {
		JobID uuid.UUID `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, env = do(t, router, http.MethodGet, "/jobs/"+created.JobID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var job queue.Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, pipeline.KindGenerateDailyPredictions, job.Kind)
	assert.Equal(t, queue.StatusPending, job.Status)

	rec, _ = do(t, router, http.MethodPost, "/jobs/weather", `{"latitude":24.85,"longitude":89.37}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec, env = do(t, router, http.MethodGet, "/jobs?status=pending&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []queue.Job
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
	assert.EqualValues(t, 1, env.Meta["limit"])

	rec, env = do(t, router, http.MethodGet, "/jobs?kind="+pipeline.KindProcessWeatherData, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, pipeline.KindProcessWeatherData, list[0].Kind)
}

func TestRouter_Errors(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	router := h.pipeline.Router(h.jobs)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown status", http.MethodGet, "/jobs?status=archived", "", http.StatusBadRequest, "invalid_status"},
		{"bad limit", http.MethodGet, "/jobs?limit=-1", "", http.StatusBadRequest, "invalid_limit"},
		{"bad job id", http.MethodGet, "/jobs/not-a-uuid", "", http.StatusBadRequest, "invalid_id"},
		{"unknown job", http.MethodGet, "/jobs/" + uuid.NewString(), "", http.StatusNotFound, "not_found"},
		{"weather without body", http.MethodPost, "/jobs/weather", "", http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"weather malformed", http.MethodPost, "/jobs/weather", `{"lat":1}`, http.StatusBadRequest, "bad_request"},
		{"weather out of range", http.MethodPost, "/jobs/weather", `{"latitude":120,"longitude":0}`, http.StatusUnprocessableEntity, "invalid_coordinates"},
		{"invalid alert", http.MethodPost, "/alerts", `{"id":"a1","hazard_type":"flood","severity":"apocalyptic","latitude":1,"longitude":1,"radius_km":5}`, http.StatusUnprocessableEntity, "invalid_alert"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestRouter_Alerts(t *testing.T) {
	t.Parallel()

	body := `{"id":"a1","hazard_type":"cyclone","severity":"severe","latitude":22.3,"longitude":91.8,"radius_km":80}`

	t.Run("reports stored jobs", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		h.catalog.Add(prediction.Farmer{
			ID: "f1", UserID: "u1",
			Farms: []prediction.Farm{{ID: "farm1", Latitude: 22.3, Longitude: 91.8}},
		})

		rec, env := do(t, h.pipeline.Router(h.jobs), http.MethodPost, "/alerts", body)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"alert_id":"a1","jobs":1}`, string(env.Data))
	})

	t.Run("unreachable catalog is a server error", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, []harnessOption{func(d *pipeline.Deps) { d.Catalog = failingCatalog{} }})

		rec, env := do(t, h.pipeline.Router(h.jobs), http.MethodPost, "/alerts", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "internal_error", env.Error.Code)
	})

	t.Run("partial enqueue failure is flagged", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, []harnessOption{func(d *pipeline.Deps) {
			d.Jobs = &failingEnqueuer{JobEnqueuer: d.Jobs, failOn: 1}
		}}, pipeline.WithBulkChunkSize(1))
		for i := range 2 {
			h.catalog.Add(prediction.Farmer{
				ID: fmt.Sprintf("f%d", i), UserID: fmt.Sprintf("u%d", i),
				Farms: []prediction.Farm{{ID: fmt.Sprintf("farm%d", i), Latitude: 22.3, Longitude: 91.8}},
			})
		}

		rec, env := do(t, h.pipeline.Router(h.jobs), http.MethodPost, "/alerts", body)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"alert_id":"a1","jobs":1}`, string(env.Data))
		assert.Contains(t, env.Meta, "partial_failure")
	})
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)

	router := h.pipeline.Router(h.jobs)
	rec, _ := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, router, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := h.pipeline.Router(h.jobs, func(context.Context) error { return errors.New("postgres down") })
	rec, _ = do(t, down, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = do(t, down, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
