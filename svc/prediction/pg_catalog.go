package prediction

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of *pgxpool.Pool the catalog needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGCatalog reads the farmers, farms and crops tables.
type PGCatalog struct {
	db DB
}

var _ Catalog = (*PGCatalog)(nil)

// NewPGCatalog creates a PostgreSQL-backed Catalog.
func NewPGCatalog(db DB) *PGCatalog {
	return &PGCatalog{db: db}
}

// Farmers loads the whole hierarchy in one query.
func (c *PGCatalog) Farmers(ctx context.Context) ([]Farmer, error) {
	const q = `
		SELECT fr.id, fr.user_id, f.id, f.name, f.latitude, f.longitude, cr.id, cr.name
		FROM farmers fr
		LEFT JOIN farms f ON f.farmer_id = fr.id
		LEFT JOIN crops cr ON cr.farm_id = f.id
		ORDER BY fr.id, f.id, cr.id`

	rows, err := c.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	farmers := make([]Farmer, 0)
	for rows.Next() {
		var (
			farmerID, userID string
			farmID, farmName *string
			lat, lon         *float64
			cropID, cropName *string
		)
		if err := rows.Scan(&farmerID, &userID, &farmID, &farmName, &lat, &lon, &cropID, &cropName); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}

		if n := len(farmers); n == 0 || farmers[n-1].ID != farmerID {
			farmers = append(farmers, Farmer{ID: farmerID, UserID: userID})
		}
		fr := &farmers[len(farmers)-1]
		if farmID == nil {
			continue
		}

		if n := len(fr.Farms); n == 0 || fr.Farms[n-1].ID != *farmID {
			fr.Farms = append(fr.Farms, Farm{ID: *farmID, FarmerID: farmerID, Name: deref(farmName), Latitude: derefF(lat), Longitude: derefF(lon)})
		}
		farm := &fr.Farms[len(fr.Farms)-1]
		if cropID != nil {
			farm.Crops = append(farm.Crops, Crop{ID: *cropID, FarmID: *farmID, Name: deref(cropName)})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return farmers, nil
}

func (c *PGCatalog) FarmCoordinates(ctx context.Context) ([]Coordinate, error) {
	const q = `SELECT DISTINCT round(latitude::numeric, 6)::float8, round(longitude::numeric, 6)::float8
		FROM farms ORDER BY 1, 2`

	rows, err := c.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load farm coordinates: %w", err)
	}
	coords, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Coordinate, error) {
		var p Coordinate
		err := row.Scan(&p.Latitude, &p.Longitude)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("load farm coordinates: %w", err)
	}
	return coords, nil
}

// FarmersNear filters farms with the haversine formula in SQL.
func (c *PGCatalog) FarmersNear(ctx context.Context, lat, lon, radiusKm float64) ([]string, error) {
	const q = `
		SELECT DISTINCT fr.user_id
		FROM farms f
		JOIN farmers fr ON fr.id = f.farmer_id
		WHERE 2 * 6371 * asin(least(1, sqrt(
			power(sin(radians(f.latitude - $1::float8) / 2), 2) +
			cos(radians($1::float8)) * cos(radians(f.latitude)) *
			power(sin(radians(f.longitude - $2::float8) / 2), 2)
		))) <= $3::float8
		ORDER BY fr.user_id`

	rows, err := c.db.Query(ctx, q, lat, lon, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("find farmers near: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("find farmers near: %w", err)
	}
	return ids, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
