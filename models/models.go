package models

import (
	"fmt"
	"strconv"
	"strings"
)

// WeatherData is the normalized current conditions returned by a provider.
// Providers build it only once all four values have been extracted.
type WeatherData struct {
	Provider    string  `json:"provider"`
	Temperature float64 `json:"temperature"` // °C
	WindSpeed   float64 `json:"wind_kph"`    // km/h
	Humidity    uint8   `json:"humidity"`    // %
	CloudCover  uint8   `json:"cloud_cover"` // %
}

// String returns the canonical four line representation.
func (w WeatherData) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "temperature: %s\n", formatFloat(w.Temperature))
	fmt.Fprintf(&b, "wind in kph: %s\n", formatFloat(w.WindSpeed))
	fmt.Fprintf(&b, "humidity: %d%%\n", w.Humidity)
	fmt.Fprintf(&b, "cloud cover: %d%%\n", w.CloudCover)
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ErrorResponse is the JSON envelope for errors in --output json mode.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}
