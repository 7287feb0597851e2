package weather_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/mongo"
	"github.com/dmitrymomot/agrohub/pkg/pg"
	"github.com/dmitrymomot/agrohub/svc/weather"
)

func sampleDays(lat, lon, temp float64) []weather.ForecastDay {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	days := make([]weather.ForecastDay, 0, 3)
	for i := range 3 {
		days = append(days, weather.ForecastDay{
			Location:     "Eldoret",
			Latitude:     lat,
			Longitude:    lon,
			ForecastDate: base.AddDate(0, 0, i).Add(9 * time.Hour),
			TempMin:      temp,
			TempMax:      temp + 10,
			Conditions:   "clear sky",
			UpdatedAt:    base,
		})
	}
	return days
}

func TestForecastDay_Key(t *testing.T) {
	t.Parallel()

	a := weather.ForecastDay{Latitude: 0.5143224999, Longitude: 35.2697800001, ForecastDate: time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC)}
	b := weather.ForecastDay{Latitude: 0.5143225, Longitude: 35.26978, ForecastDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "0.514322|35.269780|2025-07-01", b.Key().String())
}

func TestValidateCoordinates(t *testing.T) {
	t.Parallel()

	assert.NoError(t, weather.ValidateCoordinates(-90, 180))
	assert.ErrorIs(t, weather.ValidateCoordinates(-90.1, 0), weather.ErrInvalidCoordinate)
	assert.ErrorIs(t, weather.ValidateCoordinates(0, 180.5), weather.ErrInvalidCoordinate)
}

// testStoreContract runs the behavior every ForecastStore must share.
func testStoreContract(t *testing.T, store weather.ForecastStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.UpsertForecasts(ctx, sampleDays(0.514322, 35.26978, 12)))
	require.NoError(t, store.UpsertForecasts(ctx, sampleDays(0.514322, 35.26978, 14)))
	require.NoError(t, store.UpsertForecasts(ctx, sampleDays(1.0, 1.0, 20)))
	require.NoError(t, store.UpsertForecasts(ctx, nil))

	days, err := store.Forecasts(ctx, 0.5143220001, 35.26978)
	require.NoError(t, err)
	require.Len(t, days, 3, "repeated upserts must not duplicate days")
	for i, d := range days {
		assert.Equal(t, 14.0, d.TempMin, "last write wins")
		assert.Equal(t, time.Date(2025, 7, 1+i, 0, 0, 0, 0, time.UTC), d.ForecastDate.UTC())
	}

	require.NoError(t, store.RecordObservation(ctx, weather.Snapshot{
		Location:   "Eldoret",
		Latitude:   0.514322,
		Longitude:  35.26978,
		RecordedAt: time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC),
	}))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	store := weather.NewMemoryStore()
	testStoreContract(t, store)
	assert.Equal(t, 6, store.Len())
	assert.Len(t, store.Observations(), 1)
}

func TestMongoStore(t *testing.T) {
	url := os.Getenv("MONGO_TEST_URL")
	if url == "" {
		t.Skip("MONGO_TEST_URL not set")
	}

	ctx := context.Background()
	client, db, err := mongo.NewWithDatabase(ctx, mongo.Config{
		ConnectionURL:  url,
		Database:       "agrohub_test",
		ConnectTimeout: 5 * time.Second,
		MaxPoolSize:    4,
		RetryAttempts:  1,
		RetryInterval:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := weather.NewMongoStore(db)
	require.NoError(t, store.EnsureIndexes(ctx))
	testStoreContract(t, store)
}

func TestPGStore(t *testing.T) {
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{ConnectionString: url, MaxOpenConns: 4, RetryAttempts: 1, MigrationsTable: "schema_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pg.Migrate(ctx, pool, cfg, slog.New(slog.DiscardHandler)))
	_, err = pool.Exec(ctx, `TRUNCATE weather_forecasts, weather_observations`)
	require.NoError(t, err)

	testStoreContract(t, weather.NewPGStore(pool))
}
