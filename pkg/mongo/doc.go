// Package mongo connects to MongoDB with the v2 driver. It is the optional
// backing store for weather forecasts and observations.
package mongo
