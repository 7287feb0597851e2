package weather

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	forecastCollection    = "weather_forecasts"
	observationCollection = "weather_observations"
)

// MongoStore keeps forecasts and observations in MongoDB. A unique index on
// (latitude, longitude, forecast_date) backs the upsert.
type MongoStore struct {
	forecasts    *mongo.Collection
	observations *mongo.Collection
}

var _ ForecastStore = (*MongoStore)(nil)

// NewMongoStore creates a MongoDB-backed ForecastStore on db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		forecasts:    db.Collection(forecastCollection),
		observations: db.Collection(observationCollection),
	}
}

// EnsureIndexes creates the unique forecast key index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.forecasts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "latitude", Value: 1},
			{Key: "longitude", Value: 1},
			{Key: "forecast_date", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("forecast_key"),
	})
	if err != nil {
		return fmt.Errorf("create forecast index: %w", err)
	}
	return nil
}

func keyFilter(k Key) bson.D {
	return bson.D{
		{Key: "latitude", Value: k.Latitude},
		{Key: "longitude", Value: k.Longitude},
		{Key: "forecast_date", Value: k.ForecastDate},
	}
}

// UpsertForecasts replaces each day by key in one unordered bulk write.
func (s *MongoStore) UpsertForecasts(ctx context.Context, days []ForecastDay) error {
	if len(days) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(days))
	for _, d := range days {
		d = d.Normalize()
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(keyFilter(d.Key())).
			SetReplacement(d).
			SetUpsert(true))
	}

	if _, err := s.forecasts.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("upsert forecasts: %w", err)
	}
	return nil
}

func (s *MongoStore) RecordObservation(ctx context.Context, snap Snapshot) error {
	snap.Latitude = NormalizeCoordinate(snap.Latitude)
	snap.Longitude = NormalizeCoordinate(snap.Longitude)
	if _, err := s.observations.InsertOne(ctx, snap); err != nil {
		return fmt.Errorf("record observation: %w", err)
	}
	return nil
}

func (s *MongoStore) Forecasts(ctx context.Context, lat, lon float64) ([]ForecastDay, error) {
	filter := bson.D{
		{Key: "latitude", Value: NormalizeCoordinate(lat)},
		{Key: "longitude", Value: NormalizeCoordinate(lon)},
	}
	cur, err := s.forecasts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "forecast_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}

	days := make([]ForecastDay, 0)
	if err := cur.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("decode forecasts: %w", err)
	}
	for i := range days {
		days[i].ForecastDate = days[i].ForecastDate.UTC()
		days[i].UpdatedAt = days[i].UpdatedAt.UTC()
	}
	return days, nil
}
