package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// slotsPerDay is the number of 3-hour forecast entries in a day.
const slotsPerDay = 8

// Client calls an OpenWeatherMap-compatible API.
type Client struct {
	baseURL string
	apiKey  string
	days    int
	http    *http.Client
	now     func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithClock overrides the time source used for RecordedAt and UpdatedAt.
func WithClock(now func() time.Time) ClientOption {
	return func(cl *Client) {
		if now != nil {
			cl.now = now
		}
	}
}

// NewClient creates a weather API client.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid weather base url: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		days:    cfg.ForecastDays,
		http:    &http.Client{Timeout: cmpOr(cfg.Timeout, 10*time.Second)},
		now:     time.Now,
	}
	if c.days <= 0 {
		c.days = 5
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Pop  float64 `json:"pop"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Timezone int    `json:"timezone"` // offset from UTC in seconds
	} `json:"city"`
}

// CurrentWeather returns the current conditions at a coordinate.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	var resp currentResponse
	if err := c.get(ctx, "/weather", lat, lon, &resp); err != nil {
		return nil, err
	}

	return &Snapshot{
		Location:    resp.Name,
		Latitude:    NormalizeCoordinate(lat),
		Longitude:   NormalizeCoordinate(lon),
		Temperature: resp.Main.Temp,
		Humidity:    resp.Main.Humidity,
		Rainfall:    resp.Rain.OneHour,
		WindSpeed:   resp.Wind.Speed,
		Pressure:    resp.Main.Pressure,
		RecordedAt:  c.now().UTC(),
	}, nil
}

// Forecast returns up to days forecast days, one per local calendar date.
// days <= 0 uses the configured default.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) ([]ForecastDay, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = c.days
	}

	var resp forecastResponse
	if err := c.get(ctx, "/forecast", lat, lon, &resp); err != nil {
		return nil, err
	}

	zone := time.FixedZone("local", resp.City.Timezone)
	list := resp.List[:min(len(resp.List), days*slotsPerDay)]
	slots := make([]slot, 0, len(list))
	for _, item := range list {
		s := slot{
			at:        time.Unix(item.Dt, 0).In(zone),
			tempMin:   item.Main.TempMin,
			tempMax:   item.Main.TempMax,
			humidity:  item.Main.Humidity,
			pop:       item.Pop,
			windSpeed: item.Wind.Speed,
		}
		if len(item.Weather) > 0 {
			s.description = item.Weather[0].Description
		}
		slots = append(slots, s)
	}

	return aggregate(resp.City.Name, lat, lon, slots, c.now().UTC()), nil
}

func (c *Client) get(ctx context.Context, path string, lat, lon float64, dst any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Join(ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded snippet for error context.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s returned status %d: %s", ErrUpstream, path, resp.StatusCode, snippet(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUpstream, path, err)
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func cmpOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
