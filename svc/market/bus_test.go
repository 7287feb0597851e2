package market_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/logger"
	"github.com/dmitrymomot/agrohub/svc/market"
)

func newBus() *market.Bus {
	return market.NewBus(market.WithLogger(logger.Discard()))
}

func TestBus_Publish(t *testing.T) {
	t.Parallel()

	t.Run("runs listeners in registration order", func(t *testing.T) {
		t.Parallel()
		bus := newBus()

		var calls []int
		for i := range 3 {
			bus.Subscribe(market.KindOrderCreated, func(ctx context.Context, e market.Event) error {
				calls = append(calls, i)
				return nil
			})
		}

		bus.Publish(context.Background(), market.OrderCreated{Order: market.Order{ID: "o1"}})
		assert.Equal(t, []int{0, 1, 2}, calls)
	})

	t.Run("only listeners of the event kind run", func(t *testing.T) {
		t.Parallel()
		bus := newBus()

		var created, changed int
		bus.Subscribe(market.KindOrderCreated, func(ctx context.Context, e market.Event) error {
			created++
			return nil
		})
		bus.Subscribe(market.KindOrderStatusChanged, func(ctx context.Context, e market.Event) error {
			changed++
			return nil
		})

		bus.Publish(context.Background(), market.OrderStatusChanged{PreviousStatus: market.OrderStatusPending})
		assert.Equal(t, 0, created)
		assert.Equal(t, 1, changed)
	})

	t.Run("failing listener does not stop siblings", func(t *testing.T) {
		t.Parallel()
		bus := newBus()

		var after bool
		bus.Subscribe(market.KindOrderCreated, func(ctx context.Context, e market.Event) error {
			return errors.New("boom")
		})
		bus.Subscribe(market.KindOrderCreated, func(ctx context.Context, e market.Event) error {
			after = true
			return nil
		})

		bus.Publish(context.Background(), market.OrderCreated{})
		assert.True(t, after)
	})

	t.Run("panicking listener is recovered", func(t *testing.T) {
		t.Parallel()
		bus := newBus()

		var after bool
		bus.Subscribe(market.KindWeatherAlertIssued, func(ctx context.Context, e market.Event) error {
			panic("listener exploded")
		})
		bus.Subscribe(market.KindWeatherAlertIssued, func(ctx context.Context, e market.Event) error {
			after = true
			return nil
		})

		assert.NotPanics(t, func() {
			bus.Publish(context.Background(), market.WeatherAlertIssued{})
		})
		assert.True(t, after)
	})

	t.Run("no listeners is fine", func(t *testing.T) {
		t.Parallel()
		assert.NotPanics(t, func() {
			newBus().Publish(context.Background(), market.OrderCreated{})
			newBus().Publish(context.Background(), nil)
		})
	})

	t.Run("nil event pointer is dropped", func(t *testing.T) {
		t.Parallel()
		bus := newBus()

		var called bool
		market.OnOrderCreated(bus, func(ctx context.Context, e market.OrderCreated) error {
			called = true
			return nil
		})
		bus.Subscribe(market.KindOrderCreated, func(ctx context.Context, e market.Event) error {
			called = true
			return nil
		})

		assert.NotPanics(t, func() {
			bus.Publish(context.Background(), (*market.OrderCreated)(nil))
			bus.Publish(context.Background(), (*market.WeatherAlertIssued)(nil))
		})
		assert.False(t, called)
	})

	t.Run("nil listener is ignored", func(t *testing.T) {
		t.Parallel()
		bus := newBus()
		bus.Subscribe(market.KindOrderCreated, nil)
		assert.Equal(t, 0, bus.Listeners(market.KindOrderCreated))
	})

	t.Run("listener may publish", func(t *testing.T) {
		t.Parallel()
		bus := newBus()

		var changed bool
		market.OnOrderCreated(bus, func(ctx context.Context, e market.OrderCreated) error {
			bus.Publish(ctx, market.OrderStatusChanged{Order: e.Order, PreviousStatus: market.OrderStatusPending})
			return nil
		})
		market.OnOrderStatusChanged(bus, func(ctx context.Context, e market.OrderStatusChanged) error {
			changed = true
			return nil
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			bus.Publish(context.Background(), market.OrderCreated{})
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("nested publish deadlocked")
		}
		assert.True(t, changed)
	})
}

func TestBus_TypedListeners(t *testing.T) {
	t.Parallel()
	bus := newBus()

	var (
		gotOrder market.Order
		gotPrev  market.OrderStatus
		gotAlert market.WeatherAlert
	)
	market.OnOrderCreated(bus, func(ctx context.Context, e market.OrderCreated) error {
		gotOrder = e.Order
		return nil
	})
	market.OnOrderStatusChanged(bus, func(ctx context.Context, e market.OrderStatusChanged) error {
		gotPrev = e.PreviousStatus
		return nil
	})
	market.OnWeatherAlertIssued(bus, func(ctx context.Context, e market.WeatherAlertIssued) error {
		gotAlert = e.Alert
		return nil
	})

	ctx := context.Background()
	bus.Publish(ctx, market.OrderCreated{Order: market.Order{ID: "o1", OrderNumber: "1001"}})
	bus.Publish(ctx, &market.OrderStatusChanged{PreviousStatus: market.OrderStatusConfirmed})
	bus.Publish(ctx, market.WeatherAlertIssued{Alert: market.WeatherAlert{ID: "a1", HazardType: "frost"}})

	assert.Equal(t, "1001", gotOrder.OrderNumber)
	assert.Equal(t, market.OrderStatusConfirmed, gotPrev)
	assert.Equal(t, "frost", gotAlert.HazardType)
}

func TestBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	t.Parallel()
	bus := newBus()

	var (
		mu    sync.Mutex
		count int
	)
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe(market.KindOrderCreated, func(ctx context.Context, e market.Event) error {
				mu.Lock()
				count++
				mu.Unlock()
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), market.OrderCreated{})
		}()
	}
	wg.Wait()

	require.Equal(t, 20, bus.Listeners(market.KindOrderCreated))
	count = 0
	bus.Publish(context.Background(), market.OrderCreated{})
	assert.Equal(t, 20, count)
}

func TestEvent_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, market.KindOrderCreated, market.OrderCreated{}.Kind())
	assert.Equal(t, market.KindOrderStatusChanged, market.OrderStatusChanged{}.Kind())
	assert.Equal(t, market.KindWeatherAlertIssued, market.WeatherAlertIssued{}.Kind())
}

func TestWeatherAlert_Validate(t *testing.T) {
	t.Parallel()

	valid := market.WeatherAlert{
		ID:         "a1",
		HazardType: "flood",
		Severity:   market.SeverityHigh,
		Latitude:   -1.28,
		Longitude:  36.82,
		RadiusKm:   25,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(a *market.WeatherAlert)
	}{
		{"missing id", func(a *market.WeatherAlert) { a.ID = "" }},
		{"missing hazard", func(a *market.WeatherAlert) { a.HazardType = " " }},
		{"unknown severity", func(a *market.WeatherAlert) { a.Severity = "extreme" }},
		{"latitude out of range", func(a *market.WeatherAlert) { a.Latitude = 91 }},
		{"longitude out of range", func(a *market.WeatherAlert) { a.Longitude = -181 }},
		{"zero radius", func(a *market.WeatherAlert) { a.RadiusKm = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := valid
			tt.modify(&a)
			assert.ErrorIs(t, a.Validate(), market.ErrInvalidAlert)
		})
	}
}
