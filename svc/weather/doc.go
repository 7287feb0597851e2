// Package weather fetches current conditions and daily forecasts from an
// OpenWeatherMap-compatible API and keeps them in a ForecastStore.
//
// Forecast days are keyed by (latitude, longitude, forecast_date) with
// coordinates rounded to six decimals, so writing the same day twice
// replaces the first write. The upstream 3-hour slots are folded into one
// ForecastDay per local calendar date.
//
// Stores are provided for memory, PostgreSQL and MongoDB.
package weather
