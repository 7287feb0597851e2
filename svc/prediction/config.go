package prediction

import "time"

// Config configures the prediction service client.
type Config struct {
	BaseURL          string        `env:"PREDICTION_API_BASE_URL" envDefault:"http://localhost:8000"`
	Timeout          time.Duration `env:"PREDICTION_API_TIMEOUT" envDefault:"30s"`
	FailureThreshold int           `env:"PREDICTION_FAILURE_THRESHOLD" envDefault:"5"`
	RecoveryTimeout  time.Duration `env:"PREDICTION_RECOVERY_TIMEOUT" envDefault:"30s"`
}
