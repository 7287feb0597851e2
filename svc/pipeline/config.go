package pipeline

import "time"

// Config holds the recurring job schedule.
type Config struct {
	PredictionsHour   int           `env:"PIPELINE_PREDICTIONS_HOUR" envDefault:"6"`
	PredictionsMinute int           `env:"PIPELINE_PREDICTIONS_MINUTE" envDefault:"0"`
	Timezone          string        `env:"PIPELINE_TIMEZONE" envDefault:"UTC"` // IANA zone for PredictionsHour
	WeatherInterval   time.Duration `env:"PIPELINE_WEATHER_INTERVAL" envDefault:"3h"`
	ForecastDays      int           `env:"WEATHER_FORECAST_DAYS" envDefault:"5"`
	BulkChunkSize     int           `env:"PIPELINE_BULK_CHUNK_SIZE" envDefault:"500"`
}

// Options converts the config into pipeline options.
func (c Config) Options() []Option {
	return []Option{
		WithForecastDays(c.ForecastDays),
		WithBulkChunkSize(c.BulkChunkSize),
	}
}
