package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agrohub/pkg/logger"
	"github.com/dmitrymomot/agrohub/pkg/queue"
	"github.com/dmitrymomot/agrohub/svc/market"
)

// EnqueueDailyPredictions schedules one prediction run.
func (p *Pipeline) EnqueueDailyPredictions(ctx context.Context) (uuid.UUID, error) {
	return p.deps.Jobs.Enqueue(ctx, KindGenerateDailyPredictions, GenerateDailyPredictions{})
}

// EnqueueWeatherIngestion schedules ingestion for one point.
func (p *Pipeline) EnqueueWeatherIngestion(ctx context.Context, lat, lon float64) (uuid.UUID, error) {
	return p.deps.Jobs.Enqueue(ctx, KindProcessWeatherData, ProcessWeatherData{Latitude: lat, Longitude: lon})
}

// EnqueueWeatherIngestionForFarms schedules ingestion for every distinct farm
// location and returns the number of jobs stored. It keeps going after a
// failed enqueue and reports the joined errors.
func (p *Pipeline) EnqueueWeatherIngestionForFarms(ctx context.Context) (int, error) {
	coords, err := p.deps.Catalog.FarmCoordinates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load farm coordinates: %w", err)
	}

	var errs []error
	n := 0
	for _, c := range coords {
		if _, err := p.EnqueueWeatherIngestion(ctx, c.Latitude, c.Longitude); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}

	p.logger.InfoContext(ctx, "weather ingestion scheduled",
		slog.Int("locations", len(coords)),
		slog.Int("jobs", n))
	return n, errors.Join(errs...)
}

// IssueWeatherAlert validates the alert and enqueues the notification jobs for
// the farmers in range before returning, so the caller learns how many jobs
// were stored and whether any were lost. Alerts published on the bus by other
// producers take the listener path instead.
func (p *Pipeline) IssueWeatherAlert(ctx context.Context, alert market.WeatherAlert) (int, error) {
	if err := alert.Validate(); err != nil {
		return 0, err
	}
	return p.routeWeatherAlert(ctx, alert)
}

// Schedule registers the recurring triggers. Daily predictions follow the
// wall clock of cfg.Timezone.
func (p *Pipeline) Schedule(s *queue.Scheduler, cfg Config) error {
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, cfg.Timezone, err)
		}
	}

	daily := queue.In(loc, queue.DailyAt(cfg.PredictionsHour, cfg.PredictionsMinute))
	err := s.Add("daily_predictions", daily,
		func(ctx context.Context) error {
			id, err := p.EnqueueDailyPredictions(ctx)
			if err == nil {
				p.logger.InfoContext(ctx, "daily predictions scheduled", logger.JobID(id))
			}
			return err
		})
	if err != nil {
		return err
	}

	return s.Add("weather_ingestion", queue.Every(cfg.WeatherInterval),
		func(ctx context.Context) error {
			_, err := p.EnqueueWeatherIngestionForFarms(ctx)
			return err
		})
}
