package weather

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"
)

// Snapshot is a point-in-time observation.
type Snapshot struct {
	Location    string    `json:"location" bson:"location"`
	Latitude    float64   `json:"latitude" bson:"latitude"`
	Longitude   float64   `json:"longitude" bson:"longitude"`
	Temperature float64   `json:"temperature" bson:"temperature"`
	Humidity    float64   `json:"humidity" bson:"humidity"`
	Rainfall    float64   `json:"rainfall" bson:"rainfall"` // mm in the last hour
	WindSpeed   float64   `json:"wind_speed" bson:"wind_speed"`
	Pressure    float64   `json:"pressure" bson:"pressure"`
	RecordedAt  time.Time `json:"recorded_at" bson:"recorded_at"`
}

// ForecastDay is the forecast for one location and calendar date.
type ForecastDay struct {
	Location            string    `json:"location" bson:"location"`
	Latitude            float64   `json:"latitude" bson:"latitude"`
	Longitude           float64   `json:"longitude" bson:"longitude"`
	ForecastDate        time.Time `json:"forecast_date" bson:"forecast_date"` // midnight UTC
	TempMin             float64   `json:"temperature_min" bson:"temperature_min"`
	TempMax             float64   `json:"temperature_max" bson:"temperature_max"`
	Humidity            float64   `json:"humidity" bson:"humidity"`
	RainfallProbability float64   `json:"rainfall_probability" bson:"rainfall_probability"` // percent
	WindSpeed           float64   `json:"wind_speed" bson:"wind_speed"`
	Conditions          string    `json:"conditions" bson:"conditions"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}

// Key identifies a forecast day.
type Key struct {
	Latitude     float64
	Longitude    float64
	ForecastDate time.Time
}

// String renders the key as "lat|lon|date".
func (k Key) String() string {
	return fmt.Sprintf("%.6f|%.6f|%s", k.Latitude, k.Longitude, k.ForecastDate.Format(time.DateOnly))
}

// Key returns the normalised identity of f.
func (f ForecastDay) Key() Key {
	return Key{
		Latitude:     NormalizeCoordinate(f.Latitude),
		Longitude:    NormalizeCoordinate(f.Longitude),
		ForecastDate: DateOf(f.ForecastDate),
	}
}

// Normalize rounds coordinates and truncates the date so equal keys compare
// equal in every store.
func (f ForecastDay) Normalize() ForecastDay {
	k := f.Key()
	f.Latitude, f.Longitude, f.ForecastDate = k.Latitude, k.Longitude, k.ForecastDate
	return f
}

// NormalizeCoordinate rounds a coordinate to six decimals (about 11 cm).
func NormalizeCoordinate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// DateOf returns midnight UTC of t's calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, lon)
	}
	return nil
}

// slot is one 3-hour upstream forecast entry, already in local time.
type slot struct {
	at          time.Time
	tempMin     float64
	tempMax     float64
	humidity    float64
	pop         float64 // 0..1
	windSpeed   float64
	description string
}

// aggregate folds slots into one ForecastDay per calendar date of slot.at,
// ordered by date. Temperatures take the extremes, rain probability the
// maximum, humidity and wind the mean, conditions the most frequent value.
func aggregate(location string, lat, lon float64, slots []slot, now time.Time) []ForecastDay {
	type acc struct {
		day        ForecastDay
		n          int
		humidity   float64
		wind       float64
		conditions map[string]int
	}

	byDate := make(map[time.Time]*acc)
	for _, s := range slots {
		date := DateOf(s.at)
		a, ok := byDate[date]
		if !ok {
			a = &acc{
				day: ForecastDay{
					Location:     location,
					Latitude:     NormalizeCoordinate(lat),
					Longitude:    NormalizeCoordinate(lon),
					ForecastDate: date,
					TempMin:      s.tempMin,
					TempMax:      s.tempMax,
					UpdatedAt:    now,
				},
				conditions: make(map[string]int),
			}
			byDate[date] = a
		}
		a.n++
		a.day.TempMin = min(a.day.TempMin, s.tempMin)
		a.day.TempMax = max(a.day.TempMax, s.tempMax)
		a.day.RainfallProbability = max(a.day.RainfallProbability, s.pop*100)
		a.humidity += s.humidity
		a.wind += s.windSpeed
		if s.description != "" {
			a.conditions[s.description]++
		}
	}

	days := make([]ForecastDay, 0, len(byDate))
	for _, a := range byDate {
		a.day.Humidity = round2(a.humidity / float64(a.n))
		a.day.WindSpeed = round2(a.wind / float64(a.n))
		a.day.Conditions = mostFrequent(a.conditions)
		days = append(days, a.day)
	}
	sortByDate(days)
	return days
}

// mostFrequent picks the highest count, breaking ties alphabetically.
func mostFrequent(counts map[string]int) string {
	best, bestN := "", 0
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		if n := counts[k]; n > bestN {
			best, bestN = k, n
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortByDate(days []ForecastDay) {
	slices.SortFunc(days, func(x, y ForecastDay) int {
		return cmp.Compare(x.ForecastDate.Unix(), y.ForecastDate.Unix())
	})
}
