package market

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is the part of a marketplace order the pipeline needs.
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"order_number"`
	BuyerUserID string      `json:"buyer_user_id"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Severity grades a weather alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeveritySevere   Severity = "severe"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeveritySevere:
		return true
	}
	return false
}

// WeatherAlert describes a hazard affecting farms within RadiusKm of a point.
type WeatherAlert struct {
	ID         string    `json:"id"`
	HazardType string    `json:"hazard_type"`
	Severity   Severity  `json:"severity"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RadiusKm   float64   `json:"radius_km"`
	Message    string    `json:"message"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Validate checks the alert can be routed to farmers.
func (a WeatherAlert) Validate() error {
	switch {
	case strings.TrimSpace(a.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidAlert)
	case strings.TrimSpace(a.HazardType) == "":
		return fmt.Errorf("%w: hazard type is required", ErrInvalidAlert)
	case !a.Severity.Valid():
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidAlert, a.Severity)
	case a.Latitude < -90 || a.Latitude > 90:
		return fmt.Errorf("%w: latitude out of range", ErrInvalidAlert)
	case a.Longitude < -180 || a.Longitude > 180:
		return fmt.Errorf("%w: longitude out of range", ErrInvalidAlert)
	case a.RadiusKm <= 0:
		return fmt.Errorf("%w: radius must be positive", ErrInvalidAlert)
	}
	return nil
}
