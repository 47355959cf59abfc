package providers

import (
	"context"
	"net/http"
	"net/url"

	"weather-cli/models"
)

// WeatherAPIProvider queries weatherapi.com, which accepts free-form
// location text directly.
type WeatherAPIProvider struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

func NewWeatherAPIProvider(apiKey string, client *http.Client, baseURL string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		apiKey:  apiKey,
		client:  client,
		baseURL: baseURL,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return "WeatherAPI"
}

func (p *WeatherAPIProvider) GetWeather(ctx context.Context, location string) (*models.WeatherData, error) {
	query := url.Values{}
	query.Set("key", p.apiKey)
	query.Set("q", location)
	query.Set("aqi", "no")

	var result struct {
		Current *struct {
			TempC    *float64 `json:"temp_c"`
			WindKph  *float64 `json:"wind_kph"`
			Humidity *uint8   `json:"humidity"`
			Cloud    *uint8   `json:"cloud"`
		} `json:"current"`
	}

	if err := getJSON(ctx, p.client, p.Name(), "current", p.baseURL, query, &result); err != nil {
		return nil, err
	}

	if result.Current == nil {
		return nil, malformed(p.Name(), "current", "missing object current", nil)
	}

	return buildWeatherData(p.Name(), "current", currentConditions{
		Temperature: result.Current.TempC,
		WindSpeed:   result.Current.WindKph,
		Humidity:    result.Current.Humidity,
		CloudCover:  result.Current.Cloud,
	}, fieldNames{
		Temperature: "current.temp_c",
		WindSpeed:   "current.wind_kph",
		Humidity:    "current.humidity",
		CloudCover:  "current.cloud",
	})
}
