package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"weather-cli/models"
)

// getJSON performs one GET and decodes a successful body into out.
// Transport failures, non-2xx statuses and undecodable bodies map onto
// KindTransport, KindBadResponse and KindMalformedData respectively.
func getJSON(ctx context.Context, client *http.Client, provider, step, baseURL string, query url.Values, out any) error {
	reqURL := fmt.Sprintf("%s?%s", baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return transportError(provider, step, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return transportError(provider, step, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(provider, step, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return badResponse(provider, step, upstreamMessage(body, resp.Status))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return malformed(provider, step, "could not decode response body", err)
	}
	return nil
}

// upstreamMessage extracts the human readable error text from an error body.
// OpenWeather puts it at the top level, WeatherAPI under "error".
func upstreamMessage(body []byte, status string) string {
	var apiError struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &apiError); err == nil {
		if apiError.Message != "" {
			return apiError.Message
		}
		if apiError.Error != nil && apiError.Error.Message != "" {
			return apiError.Error.Message
		}
	}
	return status
}

// currentConditions holds the four values every provider extracts. A nil
// pointer means the upstream omitted the field.
type currentConditions struct {
	Temperature *float64
	WindSpeed   *float64
	Humidity    *uint8
	CloudCover  *uint8
}

// fieldNames maps each value onto the upstream JSON path for diagnostics.
type fieldNames struct {
	Temperature, WindSpeed, Humidity, CloudCover string
}

// buildWeatherData validates c and returns a complete record, or a
// KindMalformedData error naming the first offending field.
func buildWeatherData(provider, step string, c currentConditions, names fieldNames) (*models.WeatherData, error) {
	switch {
	case c.Temperature == nil:
		return nil, malformed(provider, step, "missing field "+names.Temperature, nil)
	case c.WindSpeed == nil:
		return nil, malformed(provider, step, "missing field "+names.WindSpeed, nil)
	case c.Humidity == nil:
		return nil, malformed(provider, step, "missing field "+names.Humidity, nil)
	case c.CloudCover == nil:
		return nil, malformed(provider, step, "missing field "+names.CloudCover, nil)
	case *c.Humidity > 100:
		return nil, malformed(provider, step, fmt.Sprintf("%s out of range: %d", names.Humidity, *c.Humidity), nil)
	case *c.CloudCover > 100:
		return nil, malformed(provider, step, fmt.Sprintf("%s out of range: %d", names.CloudCover, *c.CloudCover), nil)
	}

	return &models.WeatherData{
		Provider:    provider,
		Temperature: *c.Temperature,
		WindSpeed:   *c.WindSpeed,
		Humidity:    *c.Humidity,
		CloudCover:  *c.CloudCover,
	}, nil
}
