package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/agrohub/pkg/httpserver"
	"github.com/dmitrymomot/agrohub/pkg/logger"
	"github.com/dmitrymomot/agrohub/pkg/queue"
	"github.com/dmitrymomot/agrohub/pkg/requestid"
	"github.com/dmitrymomot/agrohub/svc/market"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Router returns the operator HTTP surface: job triggers, job inspection,
// alert issuing and health probes. readiness checks back /readyz.
func (p *Pipeline) Router(jobs queue.Inspector, readiness ...func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(p.logRequests)

	r.Get("/healthz", httpserver.HealthCheckHandler(p.logger))
	r.Get("/readyz", httpserver.HealthCheckHandler(p.logger, readiness...))

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", listJobs(jobs))
		r.Get("/{id}", getJob(jobs))
		r.Post("/predictions", p.postPredictions)
		r.Post("/weather", p.postWeather)
		r.Post("/weather/farms", p.postWeatherForFarms)
	})
	r.Post("/alerts", p.postAlert)

	return r
}

func (p *Pipeline) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		p.logger.LogAttrs(r.Context(), slog.LevelDebug, "operator request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)))
	})
}

func (p *Pipeline) postPredictions(w http.ResponseWriter, r *http.Request) {
	id, err := p.EnqueueDailyPredictions(r.Context())
	if err != nil {
		p.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, response{Data: map[string]any{"job_id": id}})
}

type weatherRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *Pipeline) postWeather(w http.ResponseWriter, r *http.Request) {
	var req weatherRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	id, err := p.EnqueueWeatherIngestion(r.Context(), req.Latitude, req.Longitude)
	switch {
	case errors.Is(err, queue.ErrInvalidPayload):
		writeError(w, http.StatusUnprocessableEntity, "invalid_coordinates", err)
	case err != nil:
		p.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusAccepted, response{Data: map[string]any{"job_id": id}})
	}
}

func (p *Pipeline) postWeatherForFarms(w http.ResponseWriter, r *http.Request) {
	n, err := p.EnqueueWeatherIngestionForFarms(r.Context())
	if err != nil && n == 0 {
		p.internalError(w, r, err)
		return
	}
	resp := response{Data: map[string]any{"jobs": n}}
	if err != nil {
		resp.Meta = map[string]any{"partial_failure": err.Error()}
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (p *Pipeline) postAlert(w http.ResponseWriter, r *http.Request) {
	var alert market.WeatherAlert
	if err := decodeJSON(r, &alert); err != nil {
		badRequest(w, err)
		return
	}
	if alert.IssuedAt.IsZero() {
		alert.IssuedAt = time.Now().UTC()
	}

	n, err := p.IssueWeatherAlert(r.Context(), alert)
	switch {
	case errors.Is(err, market.ErrInvalidAlert):
		writeError(w, http.StatusUnprocessableEntity, "invalid_alert", err)
		return
	case err != nil && n == 0:
		p.internalError(w, r, err)
		return
	}
	resp := response{Data: map[string]any{"alert_id": alert.ID, "jobs": n}}
	if err != nil {
		resp.Meta = map[string]any{"partial_failure": err.Error()}
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func listJobs(jobs queue.Inspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := queue.JobFilter{
			Status: queue.Status(q.Get("status")),
			Kind:   q.Get("kind"),
			Limit:  defaultListLimit,
		}
		if filter.Status != "" && !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", errors.New("unknown job status"))
			return
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
				return
			}
			filter.Limit = min(n, maxListLimit)
		}

		list, err := jobs.ListJobs(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, response{
			Data: list,
			Meta: map[string]any{"count": len(list), "limit": filter.Limit},
		})
	}
}

func getJob(jobs queue.Inspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", errors.New("job id must be a uuid"))
			return
		}

		job, err := jobs.GetJob(r.Context(), id)
		switch {
		case errors.Is(err, queue.ErrJobNotFound):
			writeError(w, http.StatusNotFound, "not_found", err)
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		default:
			writeJSON(w, http.StatusOK, response{Data: job})
		}
	}
}

func badRequest(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnsupportedMediaType) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}

func (p *Pipeline) internalError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.ErrorContext(r.Context(), "operator request failed",
		slog.String("path", r.URL.Path),
		logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", errors.New("internal error"))
}
