package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/agrohub/pkg/email"
	"github.com/dmitrymomot/agrohub/pkg/logger"
	"github.com/dmitrymomot/agrohub/svc/market"
	"github.com/dmitrymomot/agrohub/svc/notification"
)

// Subscribe registers the pipeline listeners on bus.
func (p *Pipeline) Subscribe(bus *market.Bus) {
	market.OnOrderCreated(bus, p.onOrderCreated)
	market.OnOrderStatusChanged(bus, p.onOrderStatusChanged)
	market.OnWeatherAlertIssued(bus, p.onWeatherAlertIssued)
}

// onOrderCreated emails the buyer and stores an order confirmation.
func (p *Pipeline) onOrderCreated(ctx context.Context, e market.OrderCreated) error {
	o := e.Order
	if o.BuyerUserID == "" {
		return fmt.Errorf("%w: order %s", ErrOrderWithoutBuyer, o.ID)
	}
	number := orderNumber(o)

	var errs []error
	rc, err := p.deps.Recipients.Resolve(ctx, o.BuyerUserID)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("resolve buyer: %w", err))
	case rc.Email == "":
		p.logger.WarnContext(ctx, "buyer has no email, confirmation email skipped",
			logger.UserID(o.BuyerUserID),
			slog.String("order_id", o.ID))
	default:
		err := p.deps.Mailer.SendEmail(ctx, email.SendEmailParams{
			SendTo:   rc.Email,
			Subject:  fmt.Sprintf("Order #%s confirmed", number),
			BodyHTML: orderConfirmationHTML(o, number),
			Tag:      string(notification.TypeOrderConfirmation),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("send confirmation email: %w", err))
		}
	}

	_, err = p.deps.Notifier.SendNotification(ctx, o.BuyerUserID,
		notification.TypeOrderConfirmation,
		"Order Confirmed",
		fmt.Sprintf("Your order #%s has been confirmed.", number),
		map[string]any{"order_id": o.ID})
	if err != nil {
		errs = append(errs, fmt.Errorf("send confirmation notification: %w", err))
	}

	return errors.Join(errs...)
}

func orderConfirmationHTML(o market.Order, number string) string {
	return fmt.Sprintf(
		"<h2>Thank you for your order</h2><p>Your order #%s has been confirmed.</p><p>Total: %.2f</p>",
		html.EscapeString(number), o.TotalAmount)
}

// onOrderStatusChanged tells the buyer about a status change.
func (p *Pipeline) onOrderStatusChanged(ctx context.Context, e market.OrderStatusChanged) error {
	o := e.Order
	if o.Status == e.PreviousStatus {
		return nil
	}
	if o.BuyerUserID == "" {
		return fmt.Errorf("%w: order %s", ErrOrderWithoutBuyer, o.ID)
	}

	_, err := p.deps.Notifier.SendNotification(ctx, o.BuyerUserID,
		notification.TypeOrderStatusUpdate,
		"Order Status Updated",
		fmt.Sprintf("Your order #%s is now %s.", orderNumber(o), o.Status),
		map[string]any{
			"order_id":        o.ID,
			"status":          string(o.Status),
			"previous_status": string(e.PreviousStatus),
		})
	return err
}

func orderNumber(o market.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}

// onWeatherAlertIssued routes alerts published on the bus by other producers.
func (p *Pipeline) onWeatherAlertIssued(ctx context.Context, e market.WeatherAlertIssued) error {
	_, err := p.routeWeatherAlert(ctx, e.Alert)
	return err
}

// routeWeatherAlert enqueues bulk notifications for the farmers in range and
// returns the number of jobs stored. Delivery happens in the worker pool, so
// the alert survives a restart once the jobs are stored. It keeps going after
// a failed enqueue and reports the joined errors.
func (p *Pipeline) routeWeatherAlert(ctx context.Context, a market.WeatherAlert) (int, error) {
	userIDs, err := p.deps.Catalog.FarmersNear(ctx, a.Latitude, a.Longitude, a.RadiusKm)
	if err != nil {
		return 0, fmt.Errorf("locate farmers for alert %s: %w", a.ID, err)
	}
	if len(userIDs) == 0 {
		p.logger.InfoContext(ctx, "no farmers within alert radius",
			slog.String("alert_id", a.ID),
			slog.Float64("radius_km", a.RadiusKm))
		return 0, nil
	}

	title := "Weather alert: " + a.HazardType
	message := a.Message
	if message == "" {
		message = fmt.Sprintf("A %s %s alert was issued for your area.", a.Severity, a.HazardType)
	}
	data := map[string]any{
		"alert_id":    a.ID,
		"severity":    string(a.Severity),
		"hazard_type": a.HazardType,
	}

	var errs []error
	jobs := 0
	for chunk := range slices.Chunk(userIDs, p.chunkSize) {
		_, err := p.deps.Jobs.Enqueue(ctx, KindSendBulkNotifications, SendBulkNotifications{
			UserIDs: chunk,
			Type:    notification.TypeWeatherAlert,
			Title:   title,
			Message: message,
			Data:    data,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		jobs++
	}

	p.logger.InfoContext(ctx, "weather alert routed",
		slog.String("alert_id", a.ID),
		slog.Int("farmers", len(userIDs)),
		slog.Int("jobs", jobs))

	if err := errors.Join(errs...); err != nil {
		return jobs, fmt.Errorf("enqueue alert notifications: %w", err)
	}
	return jobs, nil
}

