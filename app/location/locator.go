package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type StaticLocator struct {
	coords Coordinates
}

func NewStaticLocator(latitude, longitude float64) *StaticLocator {
	return &StaticLocator{coords: Coordinates{Latitude: latitude, Longitude: longitude}}
}

func (l *StaticLocator) Locate(ctx context.Context) (Coordinates, error) {
	return l.coords, nil
}

// HTTPLocator asks a JSON geolocation endpoint for the current position.
// Both {"lat":..,"lon":..} and {"latitude":..,"longitude":..} bodies are understood.
type HTTPLocator struct {
	url        string
	httpClient *http.Client
	userAgent  string
}

func NewHTTPLocator(url string, httpClient *http.Client, userAgent string) *HTTPLocator {
	return &HTTPLocator{url: url, httpClient: httpClient, userAgent: userAgent}
}

type geoResponse struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (l *HTTPLocator) Locate(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", l.url, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to fetch location: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var geo geoResponse
	if err := json.Unmarshal(data, &geo); err != nil {
		return Coordinates{}, fmt.Errorf("failed to decode location: %w", err)
	}

	lat, lon := geo.Latitude, geo.Longitude
	if lat == nil || lon == nil {
		lat, lon = geo.Lat, geo.Lon
	}
	if lat == nil || lon == nil {
		return Coordinates{}, fmt.Errorf("location response has no coordinates")
	}

	return Coordinates{Latitude: *lat, Longitude: *lon}, nil
}
