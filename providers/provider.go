package providers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"weather-cli/models"
)

// Provider is implemented by every weather data source.
type Provider interface {
	Name() string
	GetWeather(ctx context.Context, location string) (*models.WeatherData, error)
}

// Kind identifies a provider implementation.
type Kind string

const (
	OpenWeather Kind = "openweather"
	WeatherAPI  Kind = "weatherapi"
)

// Kinds returns every known provider identifier.
func Kinds() []Kind {
	return []Kind{OpenWeather, WeatherAPI}
}

// ParseKind matches s case-insensitively against the known identifiers.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(s))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", &CreationError{Kind: KindNotImplemented, Identity: s}
}

// Endpoints overrides upstream URLs. Empty fields keep the defaults.
type Endpoints struct {
	WeatherAPICurrent  string
	OpenWeatherGeocode string
	OpenWeatherOneCall string
}

const (
	defaultWeatherAPICurrent  = "https://api.weatherapi.com/v1/current.json"
	defaultOpenWeatherGeocode = "https://api.openweathermap.org/geo/1.0/direct"
	defaultOpenWeatherOneCall = "https://api.openweathermap.org/data/3.0/onecall"
)

type options struct {
	client    *http.Client
	endpoints Endpoints
}

// Option configures providers built by New.
type Option func(*options)

// WithHTTPClient sets the client used for upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithEndpoints overrides the upstream URLs.
func WithEndpoints(e Endpoints) Option {
	return func(o *options) {
		if e.WeatherAPICurrent != "" {
			o.endpoints.WeatherAPICurrent = e.WeatherAPICurrent
		}
		if e.OpenWeatherGeocode != "" {
			o.endpoints.OpenWeatherGeocode = e.OpenWeatherGeocode
		}
		if e.OpenWeatherOneCall != "" {
			o.endpoints.OpenWeatherOneCall = e.OpenWeatherOneCall
		}
	}
}

// New builds the provider named by identity. It performs no I/O; an unknown
// identity yields a *CreationError of kind KindNotImplemented.
func New(identity, apiKey string, opts ...Option) (Provider, error) {
	kind, err := ParseKind(identity)
	if err != nil {
		return nil, err
	}

	o := options{
		client: &http.Client{Timeout: 10 * time.Second},
		endpoints: Endpoints{
			WeatherAPICurrent:  defaultWeatherAPICurrent,
			OpenWeatherGeocode: defaultOpenWeatherGeocode,
			OpenWeatherOneCall: defaultOpenWeatherOneCall,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	switch kind {
	case OpenWeather:
		return NewOpenWeatherProvider(apiKey, o.client, o.endpoints.OpenWeatherGeocode, o.endpoints.OpenWeatherOneCall), nil
	case WeatherAPI:
		return NewWeatherAPIProvider(apiKey, o.client, o.endpoints.WeatherAPICurrent), nil
	}

	return nil, &CreationError{Kind: KindNotImplemented, Identity: identity}
}
