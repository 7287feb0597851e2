package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/email"
	"github.com/dmitrymomot/agrohub/pkg/logger"
	"github.com/dmitrymomot/agrohub/pkg/queue"
	"github.com/dmitrymomot/agrohub/svc/market"
	"github.com/dmitrymomot/agrohub/svc/notification"
	"github.com/dmitrymomot/agrohub/svc/pipeline"
	"github.com/dmitrymomot/agrohub/svc/prediction"
	"github.com/dmitrymomot/agrohub/svc/weather"
)

// MockPredictor is a mock implementation of pipeline.Predictor
type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) GenerateCropYieldPrediction(ctx context.Context, cropID string) error {
	return m.Called(ctx, cropID).Error(0)
}

// MockWeatherSource is a mock implementation of pipeline.WeatherSource
type MockWeatherSource struct {
	mock.Mock
}

func (m *MockWeatherSource) CurrentWeather(ctx context.Context, lat, lon float64) (*weather.Snapshot, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*weather.Snapshot), args.Error(1)
}

func (m *MockWeatherSource) Forecast(ctx context.Context, lat, lon float64, days int) ([]weather.ForecastDay, error) {
	args := m.Called(ctx, lat, lon, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]weather.ForecastDay), args.Error(1)
}

// recordingMailer keeps every email it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
}

func (m *recordingMailer) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, params)
	return nil
}

func (m *recordingMailer) Sent() []email.SendEmailParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.SendEmailParams(nil), m.sent...)
}

// recordingDispatcher records the users reached on one channel.
type recordingDispatcher struct {
	channel notification.Channel
	mu      sync.Mutex
	users   []string
}

func (d *recordingDispatcher) Channel() notification.Channel { return d.channel }

func (d *recordingDispatcher) Dispatch(ctx context.Context, to notification.Recipient, n notification.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = append(d.users, to.UserID)
	return nil
}

func (d *recordingDispatcher) Users() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.users...)
}

type failingCatalog struct {
	prediction.Catalog
}

func (failingCatalog) Farmers(context.Context) ([]prediction.Farmer, error) {
	return nil, errors.New("connection refused")
}

func (failingCatalog) FarmersNear(context.Context, float64, float64, float64) ([]string, error) {
	return nil, errors.New("connection refused")
}

// failingEnqueuer fails the failOn-th enqueue (1-based).
type failingEnqueuer struct {
	pipeline.JobEnqueuer
	mu     sync.Mutex
	calls  int
	failOn int
}

func (f *failingEnqueuer) Enqueue(ctx context.Context, kind string, payload any, opts ...queue.EnqueueOption) (uuid.UUID, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls == f.failOn
	f.mu.Unlock()
	if fail {
		return uuid.Nil, errors.New("queue unavailable")
	}
	return f.JobEnqueuer.Enqueue(ctx, kind, payload, opts...)
}

// stubNotifier returns canned bulk results.
type stubNotifier struct {
	pipeline.Notifier
	sent []notification.Notification
	err  error
}

func (s stubNotifier) SendBulkNotification(context.Context, []string, notification.Type, string, string, map[string]any) ([]notification.Notification, error) {
	return s.sent, s.err
}

// flakyForecasts fails the first n forecast upserts.
type flakyForecasts struct {
	*weather.MemoryStore
	mu    sync.Mutex
	fails int
}

func (f *flakyForecasts) UpsertForecasts(ctx context.Context, days []weather.ForecastDay) error {
	f.mu.Lock()
	if f.fails > 0 {
		f.fails--
		f.mu.Unlock()
		return errors.New("connection reset")
	}
	f.mu.Unlock()
	return f.MemoryStore.UpsertForecasts(ctx, days)
}

// harness wires the pipeline over in-memory stores and a fast worker.
type harness struct {
	jobs          *queue.MemoryStorage
	worker        *queue.Worker
	bus           *market.Bus
	notifications *notification.MemoryStore
	resolver      *notification.StaticResolver
	email         *recordingDispatcher
	push          *recordingDispatcher
	sms           *recordingDispatcher
	mailer        *recordingMailer
	catalog       *prediction.MemoryCatalog
	predictor     *MockPredictor
	source        *MockWeatherSource
	forecasts     *weather.MemoryStore
	pipeline      *pipeline.Pipeline
}

type harnessOption func(*pipeline.Deps)

func newHarness(t *testing.T, opts []harnessOption, pipelineOpts ...pipeline.Option) *harness {
	t.Helper()

	h := &harness{
		jobs:          queue.NewMemoryStorage(),
		bus:           market.NewBus(market.WithLogger(logger.Discard())),
		notifications: notification.NewMemoryStore(),
		resolver:      notification.NewStaticResolver(),
		email:         &recordingDispatcher{channel: notification.ChannelEmail},
		push:          &recordingDispatcher{channel: notification.ChannelPush},
		sms:           &recordingDispatcher{channel: notification.ChannelSMS},
		mailer:        &recordingMailer{},
		catalog:       prediction.NewMemoryCatalog(),
		predictor:     &MockPredictor{},
		source:        &MockWeatherSource{},
		forecasts:     weather.NewMemoryStore(),
	}

	worker, err := queue.NewWorker(h.jobs,
		queue.WithPollInterval(5*time.Millisecond),
		queue.WithConcurrency(4),
		queue.WithBackoff(queue.ExponentialBackoff{Base: time.Millisecond, Max: 5 * time.Millisecond}),
		queue.WithWorkerLogger(logger.Discard()))
	require.NoError(t, err)
	h.worker = worker

	enqueuer, err := queue.NewEnqueuer(h.jobs,
		queue.WithSignal(worker),
		queue.WithDefaultMaxAttempts(3),
		queue.WithEnqueuerLogger(logger.Discard()))
	require.NoError(t, err)

	svc, err := notification.NewService(h.notifications, h.resolver,
		notification.WithDispatchers(h.email, h.push, h.sms),
		notification.WithLogger(logger.Discard()))
	require.NoError(t, err)

	deps := pipeline.Deps{
		Jobs:       enqueuer,
		Notifier:   svc,
		Recipients: h.resolver,
		Mailer:     h.mailer,
		Catalog:    h.catalog,
		Predictor:  h.predictor,
		Weather:    h.source,
		Forecasts:  h.forecasts,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	p, err := pipeline.New(deps, append([]pipeline.Option{pipeline.WithLogger(logger.Discard())}, pipelineOpts...)...)
	require.NoError(t, err)
	h.pipeline = p

	require.NoError(t, worker.RegisterHandlers(p.Handlers()...))
	p.Subscribe(h.bus)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.worker.Start(context.Background()))
	t.Cleanup(func() { _ = h.worker.Stop() })
}

// waitTerminal waits until n jobs of kind exist and all are terminal.
func (h *harness) waitTerminal(t *testing.T, kind string, n int) []queue.Job {
	t.Helper()
	var jobs []queue.Job
	require.Eventually(t, func() bool {
		var err error
		jobs, err = h.jobs.ListJobs(context.Background(), queue.JobFilter{Kind: kind})
		if err != nil || len(jobs) != n {
			return false
		}
		for _, j := range jobs {
			if !j.Status.Terminal() {
				return false
			}
		}
		return true
	}, 5*time.Second, 5*time.Millisecond)
	return jobs
}

func (h *harness) handler(t *testing.T, kind string) queue.Handler {
	t.Helper()
	for _, hd := range h.pipeline.Handlers() {
		if hd.Kind() == kind {
			return hd
		}
	}
	t.Fatalf("no handler for %s", kind)
	return nil
}

func sampleForecast(lat, lon float64) []weather.ForecastDay {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	days := make([]weather.ForecastDay, 3)
	for i := range days {
		days[i] = weather.ForecastDay{
			Location:     "Bogura",
			Latitude:     lat,
			Longitude:    lon,
			ForecastDate: base.AddDate(0, 0, i),
			TempMin:      24,
			TempMax:      33,
			Humidity:     80,
			Conditions:   "light rain",
		}
	}
	return days
}
