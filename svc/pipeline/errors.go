package pipeline

import "errors"

var (
	// ErrMissingDependency is returned by New when a required dependency is nil.
	ErrMissingDependency = errors.New("pipeline dependency is missing")

	// ErrInvalidConfig is returned by Schedule for an unknown timezone.
	ErrInvalidConfig = errors.New("invalid pipeline config")

	// ErrInvalidJob is returned when a job payload fails validation.
	ErrInvalidJob = errors.New("invalid job payload")

	// ErrNoWeatherData is returned when the weather source answers without data.
	ErrNoWeatherData = errors.New("weather source returned no data")

	// ErrNothingDelivered is returned when a bulk job stored no notification.
	ErrNothingDelivered = errors.New("no notification was stored")

	// ErrOrderWithoutBuyer is returned when an order event has no buyer.
	ErrOrderWithoutBuyer = errors.New("order has no buyer")
)
