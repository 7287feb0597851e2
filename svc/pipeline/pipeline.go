package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agrohub/pkg/email"
	"github.com/dmitrymomot/agrohub/pkg/queue"
	"github.com/dmitrymomot/agrohub/svc/notification"
	"github.com/dmitrymomot/agrohub/svc/prediction"
	"github.com/dmitrymomot/agrohub/svc/weather"
)

// JobEnqueuer stores jobs for the worker pool.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, kind string, payload any, opts ...queue.EnqueueOption) (uuid.UUID, error)
}

// Notifier persists and delivers notifications.
type Notifier interface {
	SendNotification(ctx context.Context, userID string, typ notification.Type, title, message string, data map[string]any) (notification.Notification, error)
	SendBulkNotification(ctx context.Context, userIDs []string, typ notification.Type, title, message string, data map[string]any) ([]notification.Notification, error)
}

// Predictor requests crop yield predictions.
type Predictor interface {
	GenerateCropYieldPrediction(ctx context.Context, cropID string) error
}

// WeatherSource fetches observations and forecasts.
type WeatherSource interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
	Forecast(ctx context.Context, lat, lon float64, days int) ([]weather.ForecastDay, error)
}

// FarmerLocator finds the farmers affected by a localized hazard.
type FarmerLocator interface {
	FarmersNear(ctx context.Context, lat, lon, radiusKm float64) ([]string, error)
}

// Deps are the collaborators of the pipeline. All fields are required.
type Deps struct {
	Jobs       JobEnqueuer
	Notifier   Notifier
	Recipients notification.RecipientResolver
	Mailer     email.EmailSender
	Catalog    prediction.Catalog
	Predictor  Predictor
	Weather    WeatherSource
	Forecasts  weather.ForecastStore
}

func (d Deps) validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingDependency, name)
	}
	switch {
	case d.Jobs == nil:
		return missing("jobs")
	case d.Notifier == nil:
		return missing("notifier")
	case d.Recipients == nil:
		return missing("recipients")
	case d.Mailer == nil:
		return missing("mailer")
	case d.Catalog == nil:
		return missing("catalog")
	case d.Predictor == nil:
		return missing("predictor")
	case d.Weather == nil:
		return missing("weather")
	case d.Forecasts == nil:
		return missing("forecasts")
	}
	return nil
}

// Pipeline runs jobs, reacts to events and exposes triggers.
type Pipeline struct {
	deps         Deps
	forecastDays int
	chunkSize    int
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.logger = log
		}
	}
}

// WithForecastDays sets how many forecast days an ingestion job fetches.
func WithForecastDays(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.forecastDays = n
		}
	}
}

// WithBulkChunkSize caps the recipients of one bulk notification job. Larger
// audiences are split over several jobs.
func WithBulkChunkSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// New creates a Pipeline.
func New(deps Deps, opts ...Option) (*Pipeline, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		deps:         deps,
		forecastDays: 5,
		chunkSize:    500,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

