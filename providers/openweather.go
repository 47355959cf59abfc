package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"weather-cli/models"
)

// OpenWeatherProvider queries openweathermap.org. Its conditions endpoint is
// coordinate based, so every lookup geocodes the location first.
type OpenWeatherProvider struct {
	apiKey     string
	client     *http.Client
	geocodeURL string
	oneCallURL string
}

func NewOpenWeatherProvider(apiKey string, client *http.Client, geocodeURL, oneCallURL string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		apiKey:     apiKey,
		client:     client,
		geocodeURL: geocodeURL,
		oneCallURL: oneCallURL,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return "OpenWeatherMap"
}

// coordinates is the output of the geocode step and the input of the
// conditions step.
type coordinates struct {
	Lat, Lon float64
}

func (p *OpenWeatherProvider) GetWeather(ctx context.Context, location string) (*models.WeatherData, error) {
	coords, err := p.geocode(ctx, location)
	if err != nil {
		return nil, err
	}
	return p.current(ctx, coords)
}

func (p *OpenWeatherProvider) geocode(ctx context.Context, location string) (coordinates, error) {
	query := url.Values{}
	query.Set("q", location)
	query.Set("limit", "1")
	query.Set("appid", p.apiKey)

	var results []struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}

	if err := getJSON(ctx, p.client, p.Name(), "geocode", p.geocodeURL, query, &results); err != nil {
		return coordinates{}, err
	}

	if len(results) == 0 {
		return coordinates{}, malformed(p.Name(), "geocode", fmt.Sprintf("no geocoding result for %q", location), nil)
	}

	first := results[0]
	if first.Lat == nil || first.Lon == nil {
		return coordinates{}, malformed(p.Name(), "geocode", "missing field lat/lon in first result", nil)
	}

	return coordinates{Lat: *first.Lat, Lon: *first.Lon}, nil
}

func (p *OpenWeatherProvider) current(ctx context.Context, coords coordinates) (*models.WeatherData, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	query.Set("units", "metric")
	query.Set("exclude", "hourly,daily")
	query.Set("appid", p.apiKey)

	var result struct {
		Current *struct {
			Temp      *float64 `json:"temp"`
			WindSpeed *float64 `json:"wind_speed"`
			Humidity  *uint8   `json:"humidity"`
			Clouds    *uint8   `json:"clouds"`
		} `json:"current"`
	}

	if err := getJSON(ctx, p.client, p.Name(), "current", p.oneCallURL, query, &result); err != nil {
		return nil, err
	}

	if result.Current == nil {
		return nil, malformed(p.Name(), "current", "missing object current", nil)
	}

	return buildWeatherData(p.Name(), "current", currentConditions{
		Temperature: result.Current.Temp,
		WindSpeed:   result.Current.WindSpeed,
		Humidity:    result.Current.Humidity,
		CloudCover:  result.Current.Clouds,
	}, fieldNames{
		Temperature: "current.temp",
		WindSpeed:   "current.wind_speed",
		Humidity:    "current.humidity",
		CloudCover:  "current.clouds",
	})
}
