// Package market holds the marketplace domain facts the pipeline reacts to
// and the in-process Bus that broadcasts them.
//
// Events form a closed set: OrderCreated, OrderStatusChanged and
// WeatherAlertIssued. Listeners are registered per Kind and run synchronously
// on the publisher's goroutine, in registration order. A failing or panicking
// listener is logged and skipped, so Publish never fails because of listener
// behavior.
//
// Delivery is at-most-once and in-process only. Effects that must survive a
// restart should enqueue a job instead of doing the work inline.
//
//	bus := market.NewBus(market.WithLogger(log))
//	market.OnOrderCreated(bus, func(ctx context.Context, e market.OrderCreated) error {
//		return notify(ctx, e.Order)
//	})
//	bus.Publish(ctx, market.OrderCreated{Order: order})
package market
