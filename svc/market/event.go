package market

// Kind identifies an event variant.
type Kind string

const (
	KindOrderCreated       Kind = "order.created"
	KindOrderStatusChanged Kind = "order.status_changed"
	KindWeatherAlertIssued Kind = "weather.alert_issued"
)

// Event is an immutable fact about a state transition. The set of variants
// is closed: only types in this package implement it.
type Event interface {
	Kind() Kind
	sealed()
}

// OrderCreated is published once when an order is placed.
type OrderCreated struct {
	Order Order
}

// OrderStatusChanged is published when an order moves to a new status.
type OrderStatusChanged struct {
	Order          Order
	PreviousStatus OrderStatus
}

// WeatherAlertIssued is published when a hazard alert is raised for an area.
type WeatherAlertIssued struct {
	Alert WeatherAlert
}

func (OrderCreated) Kind() Kind       { return KindOrderCreated }
func (OrderStatusChanged) Kind() Kind { return KindOrderStatusChanged }
func (WeatherAlertIssued) Kind() Kind { return KindWeatherAlertIssued }

func (OrderCreated) sealed()       {}
func (OrderStatusChanged) sealed() {}
func (WeatherAlertIssued) sealed() {}
