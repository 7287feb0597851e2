package weather

import "time"

// Config configures the weather API client.
type Config struct {
	BaseURL      string        `env:"WEATHER_API_BASE_URL" envDefault:"https://api.openweathermap.org/data/2.5"`
	APIKey       string        `env:"WEATHER_API_KEY"`
	Timeout      time.Duration `env:"WEATHER_API_TIMEOUT" envDefault:"10s"`
	ForecastDays int           `env:"WEATHER_FORECAST_DAYS" envDefault:"5"`
}
