package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/agrohub/pkg/logger"
	"github.com/dmitrymomot/agrohub/pkg/queue"
	"github.com/dmitrymomot/agrohub/svc/notification"
	"github.com/dmitrymomot/agrohub/svc/weather"
)

// Handlers returns the job handlers for the worker pool.
func (p *Pipeline) Handlers() []queue.Handler {
	return []queue.Handler{
		queue.NewHandler[GenerateDailyPredictions](KindGenerateDailyPredictions, p.generateDailyPredictions),
		queue.NewHandler[ProcessWeatherData](KindProcessWeatherData, p.processWeatherData),
		queue.NewHandler[SendBulkNotifications](KindSendBulkNotifications, p.sendBulkNotifications),
	}
}

// generateDailyPredictions requests a prediction per crop. A crop that fails
// is logged and skipped; only a catalog outage fails the job.
func (p *Pipeline) generateDailyPredictions(ctx context.Context, _ GenerateDailyPredictions) error {
	start := time.Now()

	farmers, err := p.deps.Catalog.Farmers(ctx)
	if err != nil {
		return queue.Retryable(fmt.Errorf("failed to load crop catalog: %w", err))
	}

	var total, failed int
	for _, farmer := range farmers {
		for _, farm := range farmer.Farms {
			for _, crop := range farm.Crops {
				if err := ctx.Err(); err != nil {
					return queue.Retryable(err)
				}
				total++
				if err := p.deps.Predictor.GenerateCropYieldPrediction(ctx, crop.ID); err != nil {
					failed++
					p.logger.WarnContext(ctx, "crop prediction failed",
						slog.String("crop_id", crop.ID),
						slog.String("farm_id", farm.ID),
						logger.Error(err))
				}
			}
		}
	}

	p.logger.InfoContext(ctx, "daily predictions generated",
		slog.Int("crops", total),
		slog.Int("failed", failed),
		logger.Duration(time.Since(start)))
	return nil
}

// processWeatherData stores the current observation and upserts the forecast.
// Repeating it with the same upstream data leaves one record per day.
func (p *Pipeline) processWeatherData(ctx context.Context, job ProcessWeatherData) error {
	lat, lon := job.Latitude, job.Longitude

	current, err := p.deps.Weather.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return upstreamError("fetch current weather", err)
	}
	if current == nil {
		return queue.Retryable(fmt.Errorf("fetch current weather: %w", ErrNoWeatherData))
	}

	days, err := p.deps.Weather.Forecast(ctx, lat, lon, p.forecastDays)
	if err != nil {
		return upstreamError("fetch forecast", err)
	}
	if len(days) == 0 {
		return queue.Retryable(fmt.Errorf("fetch forecast: %w", ErrNoWeatherData))
	}

	// Forecasts upsert idempotently; the observation append goes last so a
	// retry after a forecast failure does not record it twice.
	if err := p.deps.Forecasts.UpsertForecasts(ctx, days); err != nil {
		return queue.Retryable(fmt.Errorf("failed to store forecast: %w", err))
	}
	if err := p.deps.Forecasts.RecordObservation(ctx, *current); err != nil {
		return queue.Retryable(fmt.Errorf("failed to record observation: %w", err))
	}

	p.logger.InfoContext(ctx, "weather data processed",
		slog.Float64("latitude", lat),
		slog.Float64("longitude", lon),
		slog.String("location", current.Location),
		slog.Int("forecast_days", len(days)))
	return nil
}

// upstreamError marks source failures transient, except bad coordinates.
func upstreamError(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	if errors.Is(err, weather.ErrInvalidCoordinate) {
		return err
	}
	return queue.Retryable(err)
}

// sendBulkNotifications fans one notification out to every user. Partial
// failure completes the job so delivered users are not notified twice.
func (p *Pipeline) sendBulkNotifications(ctx context.Context, job SendBulkNotifications) error {
	sent, err := p.deps.Notifier.SendBulkNotification(ctx, job.UserIDs, job.Type, job.Title, job.Message, job.Data)
	if err != nil && len(sent) == 0 {
		err = fmt.Errorf("%w: %w", ErrNothingDelivered, err)
		if errors.Is(err, notification.ErrInvalidNotification) {
			return err
		}
		return queue.Retryable(err)
	}
	if err != nil {
		p.logger.WarnContext(ctx, "bulk notification partially failed",
			slog.String("type", string(job.Type)),
			slog.Int("requested", len(job.UserIDs)),
			slog.Int("stored", len(sent)),
			logger.Error(err))
		return nil
	}

	p.logger.InfoContext(ctx, "bulk notification sent",
		slog.String("type", string(job.Type)),
		slog.Int("stored", len(sent)))
	return nil
}
