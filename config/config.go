package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"weather-cli/providers"
)

// Settings are the runtime options read from the environment.
type Settings struct {
	ConfigFile  string        `env:"WEATHER_CONFIG"       envDefault:"weather.env"`
	APIKey      string        `env:"WEATHER_API_KEY"`
	HTTPTimeout time.Duration `env:"WEATHER_HTTP_TIMEOUT" envDefault:"10s"`
	LogLevel    string        `env:"LOG_LEVEL"            envDefault:"warn"`

	WeatherAPIURL         string `env:"WEATHERAPI_URL"`
	OpenWeatherGeoURL     string `env:"OPENWEATHER_GEO_URL"`
	OpenWeatherOneCallURL string `env:"OPENWEATHER_ONECALL_URL"`
}

func Load() (*Settings, error) {
	// .env in the working directory is optional
	godotenv.Load()

	settings, err := env.ParseAs[Settings]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if settings.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("WEATHER_HTTP_TIMEOUT must be positive, got %s", settings.HTTPTimeout)
	}
	if strings.TrimSpace(settings.ConfigFile) == "" {
		return nil, fmt.Errorf("WEATHER_CONFIG must not be empty")
	}

	return &settings, nil
}

// Endpoints returns the upstream URL overrides. Unset values keep the
// provider defaults.
func (s *Settings) Endpoints() providers.Endpoints {
	return providers.Endpoints{
		WeatherAPICurrent:  s.WeatherAPIURL,
		OpenWeatherGeocode: s.OpenWeatherGeoURL,
		OpenWeatherOneCall: s.OpenWeatherOneCallURL,
	}
}

// Level parses LogLevel, falling back to warn.
func (s *Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}
