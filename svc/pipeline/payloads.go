package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/agrohub/svc/notification"
	"github.com/dmitrymomot/agrohub/svc/weather"
)

// Job kinds.
const (
	KindGenerateDailyPredictions = "generate_daily_predictions"
	KindProcessWeatherData       = "process_weather_data"
	KindSendBulkNotifications    = "send_bulk_notifications"
)

// GenerateDailyPredictions asks for a yield prediction for every known crop.
type GenerateDailyPredictions struct{}

// ProcessWeatherData ingests current weather and the forecast for one point.
type ProcessWeatherData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinates.
func (p ProcessWeatherData) Validate() error {
	if err := weather.ValidateCoordinates(p.Latitude, p.Longitude); err != nil {
		return errors.Join(ErrInvalidJob, err)
	}
	return nil
}

// SendBulkNotifications sends one notification to many users.
type SendBulkNotifications struct {
	UserIDs []string          `json:"user_ids"`
	Type    notification.Type `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Data    map[string]any    `json:"data,omitempty"`
}

// Validate requires recipients, a type and a title.
func (p SendBulkNotifications) Validate() error {
	switch {
	case len(p.UserIDs) == 0:
		return fmt.Errorf("%w: user ids are required", ErrInvalidJob)
	case slices.ContainsFunc(p.UserIDs, func(id string) bool { return strings.TrimSpace(id) == "" }):
		return fmt.Errorf("%w: user ids must not be blank", ErrInvalidJob)
	case p.Type == "":
		return fmt.Errorf("%w: type is required", ErrInvalidJob)
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidJob)
	}
	return nil
}
