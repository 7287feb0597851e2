package prediction

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/dmitrymomot/agrohub/svc/weather"
)

// Crop is a crop planted on a farm.
type Crop struct {
	ID     string `json:"id"`
	FarmID string `json:"farm_id"`
	Name   string `json:"name"`
}

// Farm is a located plot owned by a farmer.
type Farm struct {
	ID        string  `json:"id"`
	FarmerID  string  `json:"farmer_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Crops     []Crop  `json:"crops,omitempty"`
}

// Farmer is a user who owns farms.
type Farmer struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Farms  []Farm `json:"farms,omitempty"`
}

// Coordinate is a point on the map.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Catalog reads the farmer -> farm -> crop hierarchy.
type Catalog interface {
	// Farmers returns every farmer with farms and crops loaded.
	Farmers(ctx context.Context) ([]Farmer, error)

	// FarmCoordinates returns the distinct farm locations.
	FarmCoordinates(ctx context.Context) ([]Coordinate, error)

	// FarmersNear returns the distinct user ids of farmers with at least one
	// farm within radiusKm of the point, sorted.
	FarmersNear(ctx context.Context, lat, lon, radiusKm float64) ([]string, error)
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// MemoryCatalog is an in-memory Catalog for development and tests.
type MemoryCatalog struct {
	farmers []Farmer
	mu      sync.RWMutex
}

var _ Catalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog creates a catalog holding farmers.
func NewMemoryCatalog(farmers ...Farmer) *MemoryCatalog {
	return &MemoryCatalog{farmers: farmers}
}

// Add appends a farmer.
func (c *MemoryCatalog) Add(f Farmer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.farmers = append(c.farmers, f)
}

func (c *MemoryCatalog) Farmers(ctx context.Context) ([]Farmer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Farmer, 0, len(c.farmers))
	for _, f := range c.farmers {
		farms := make([]Farm, 0, len(f.Farms))
		for _, farm := range f.Farms {
			farm.Crops = slices.Clone(farm.Crops)
			farms = append(farms, farm)
		}
		f.Farms = farms
		out = append(out, f)
	}
	return out, nil
}

func (c *MemoryCatalog) FarmCoordinates(ctx context.Context) ([]Coordinate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[Coordinate]struct{})
	coords := make([]Coordinate, 0)
	for _, f := range c.farmers {
		for _, farm := range f.Farms {
			p := Coordinate{
				Latitude:  weather.NormalizeCoordinate(farm.Latitude),
				Longitude: weather.NormalizeCoordinate(farm.Longitude),
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			coords = append(coords, p)
		}
	}
	return coords, nil
}

func (c *MemoryCatalog) FarmersNear(ctx context.Context, lat, lon, radiusKm float64) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0)
	for _, f := range c.farmers {
		for _, farm := range f.Farms {
			if DistanceKm(lat, lon, farm.Latitude, farm.Longitude) <= radiusKm {
				ids = append(ids, f.UserID)
				break
			}
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}
