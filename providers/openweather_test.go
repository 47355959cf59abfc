package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

type openWeatherStub struct {
	geoStatus int
	geoBody   string
	oneStatus int
	oneBody   string
	geoCalls  atomic.Int32
	oneCalls  atomic.Int32

	mu         sync.Mutex
	oneCallLat string
	oneCallLon string
}

func (s *openWeatherStub) start(t *testing.T) (*httptest.Server, *OpenWeatherProvider) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/geo/1.0/direct", func(w http.ResponseWriter, r *http.Request) {
		s.geoCalls.Add(1)
		q := r.URL.Query()
		if q.Get("q") != "Kyiv" || q.Get("limit") != "1" || q.Get("appid") != "secret" {
			t.Errorf("unexpected geocode query %q", r.URL.RawQuery)
		}
		w.WriteHeader(s.geoStatus)
		w.Write([]byte(s.geoBody))
	})
	mux.HandleFunc("/data/3.0/onecall", func(w http.ResponseWriter, r *http.Request) {
		s.oneCalls.Add(1)
		q := r.URL.Query()
		if q.Get("units") != "metric" || q.Get("exclude") != "hourly,daily" || q.Get("appid") != "secret" {
			t.Errorf("unexpected onecall query %q", r.URL.RawQuery)
		}
		s.mu.Lock()
		s.oneCallLat, s.oneCallLon = q.Get("lat"), q.Get("lon")
		s.mu.Unlock()
		w.WriteHeader(s.oneStatus)
		w.Write([]byte(s.oneBody))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewOpenWeatherProvider("secret", srv.Client(), srv.URL+"/geo/1.0/direct", srv.URL+"/data/3.0/onecall")
	return srv, p
}

func TestOpenWeatherGetWeather(t *testing.T) {
	stub := &openWeatherStub{
		geoStatus: http.StatusOK,
		geoBody:   `[{"name":"Kyiv","lat":50.4501,"lon":30.5234,"country":"UA"}]`,
		oneStatus: http.StatusOK,
		oneBody:   `{"lat":50.4501,"lon":30.5234,"current":{"temp":21.5,"wind_speed":2.5,"humidity":60,"clouds":20}}`,
	}
	_, p := stub.start(t)

	got, err := p.GetWeather(context.Background(), "Kyiv")
	if err != nil {
		t.Fatalf("GetWeather: %v", err)
	}

	stub.mu.Lock()
	lat, lon := stub.oneCallLat, stub.oneCallLon
	stub.mu.Unlock()
	if lat != "50.4501" || lon != "30.5234" {
		t.Fatalf("onecall coordinates = %s,%s, want 50.4501,30.5234", lat, lon)
	}
	if got.Temperature != 21.5 {
		t.Errorf("Temperature = %v, want 21.5", got.Temperature)
	}
	if got.WindSpeed != 2.5 {
		t.Errorf("WindSpeed = %v, want 2.5 passed through unchanged", got.WindSpeed)
	}
	if got.Humidity != 60 || got.CloudCover != 20 {
		t.Errorf("Humidity, CloudCover = %d, %d, want 60, 20", got.Humidity, got.CloudCover)
	}
	if got.Provider != "OpenWeatherMap" {
		t.Errorf("Provider = %q", got.Provider)
	}
}

func TestOpenWeatherGeocodeFailureShortCircuits(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{"empty result", http.StatusOK, `[]`, ErrMalformedData},
		{"missing coordinates", http.StatusOK, `[{"name":"Kyiv"}]`, ErrMalformedData},
		{"object instead of array", http.StatusOK, `{"name":"Kyiv"}`, ErrMalformedData},
		{"not json", http.StatusOK, `Kyiv is at 50N 30E`, ErrMalformedData},
		{"unauthorized", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key."}`, ErrBadResponse},
		{"non json error body", http.StatusBadGateway, `<html>bad gateway</html>`, ErrBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &openWeatherStub{
				geoStatus: tt.status,
				geoBody:   tt.body,
				oneStatus: http.StatusOK,
				oneBody:   `{"current":{"temp":1,"wind_speed":1,"humidity":1,"clouds":1}}`,
			}
			_, p := stub.start(t)

			got, err := p.GetWeather(context.Background(), "Kyiv")
			if got != nil {
				t.Fatalf("GetWeather returned %+v, want nil", got)
			}
			if !errors.Is(err, tt.is) {
				t.Fatalf("error = %v, want %v", err, tt.is)
			}
			if stub.geoCalls.Load() != 1 {
				t.Fatalf("geocode calls = %d, want 1", stub.geoCalls.Load())
			}
			if n := stub.oneCalls.Load(); n != 0 {
				t.Fatalf("weather step ran %d times after geocode failure", n)
			}
		})
	}
}

func TestOpenWeatherBadResponseMessage(t *testing.T) {
	stub := &openWeatherStub{
		geoStatus: http.StatusOK,
		geoBody:   `[{"lat":1,"lon":2}]`,
		oneStatus: http.StatusUnauthorized,
		oneBody:   `{"cod":401,"message":"Please note that using One Call 3.0 requires a separate subscription"}`,
	}
	_, p := stub.start(t)

	_, err := p.GetWeather(context.Background(), "Kyiv")

	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindBadResponse {
		t.Fatalf("error = %v, want BadResponse", err)
	}
	if fe.Step != "current" {
		t.Errorf("Step = %q, want current", fe.Step)
	}
	if fe.Message != "Please note that using One Call 3.0 requires a separate subscription" {
		t.Errorf("Message = %q", fe.Message)
	}
}

func TestOpenWeatherMalformedConditions(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing temp", `{"current":{"wind_speed":1,"humidity":1,"clouds":1}}`},
		{"missing wind_speed", `{"current":{"temp":1,"humidity":1,"clouds":1}}`},
		{"missing humidity", `{"current":{"temp":1,"wind_speed":1,"clouds":1}}`},
		{"missing clouds", `{"current":{"temp":1,"wind_speed":1,"humidity":1}}`},
		{"wrong temp type", `{"current":{"temp":"warm","wind_speed":1,"humidity":1,"clouds":1}}`},
		{"clouds out of range", `{"current":{"temp":1,"wind_speed":1,"humidity":1,"clouds":101}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &openWeatherStub{
				geoStatus: http.StatusOK,
				geoBody:   `[{"lat":1,"lon":2}]`,
				oneStatus: http.StatusOK,
				oneBody:   tt.body,
			}
			_, p := stub.start(t)

			got, err := p.GetWeather(context.Background(), "Kyiv")
			if got != nil {
				t.Fatalf("GetWeather returned %+v, want nil", got)
			}
			if !errors.Is(err, ErrMalformedData) {
				t.Fatalf("error = %v, want MalformedData", err)
			}
		})
	}
}

func TestOpenWeatherCurrentStepErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		is      error
		message string
	}{
		{"non json error body", http.StatusInternalServerError, `upstream exploded`, ErrBadResponse, "500 Internal Server Error"},
		{"nested error message", http.StatusBadRequest, `{"error":{"message":"wrong latitude"}}`, ErrBadResponse, "wrong latitude"},
		{"not json", http.StatusOK, `<html></html>`, ErrMalformedData, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &openWeatherStub{
				geoStatus: http.StatusOK,
				geoBody:   `[{"lat":1,"lon":2}]`,
				oneStatus: tt.status,
				oneBody:   tt.body,
			}
			_, p := stub.start(t)

			got, err := p.GetWeather(context.Background(), "Kyiv")
			if got != nil {
				t.Fatalf("GetWeather returned %+v, want nil", got)
			}
			if !errors.Is(err, tt.is) {
				t.Fatalf("error = %v, want %v", err, tt.is)
			}

			var fe *FetchError
			if !errors.As(err, &fe) || fe.Step != "current" {
				t.Fatalf("error = %v, want failure at the current step", err)
			}
			if tt.message != "" && fe.Message != tt.message {
				t.Fatalf("Message = %q, want %q", fe.Message, tt.message)
			}
		})
	}
}

func TestOpenWeatherTransportErrors(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	t.Run("geocode", func(t *testing.T) {
		p := NewOpenWeatherProvider("secret", http.DefaultClient, closedURL, closedURL)

		_, err := p.GetWeather(context.Background(), "Kyiv")

		var fe *FetchError
		if !errors.As(err, &fe) || fe.Kind != KindTransport || fe.Step != "geocode" {
			t.Fatalf("error = %v, want transport failure at geocode", err)
		}
	})

	t.Run("current", func(t *testing.T) {
		stub := &openWeatherStub{
			geoStatus: http.StatusOK,
			geoBody:   `[{"lat":1,"lon":2}]`,
		}
		srv, _ := stub.start(t)
		p := NewOpenWeatherProvider("secret", srv.Client(), srv.URL+"/geo/1.0/direct", closedURL)

		_, err := p.GetWeather(context.Background(), "Kyiv")

		var fe *FetchError
		if !errors.As(err, &fe) || fe.Kind != KindTransport || fe.Step != "current" {
			t.Fatalf("error = %v, want transport failure at current", err)
		}
		if stub.geoCalls.Load() != 1 {
			t.Fatalf("geocode calls = %d, want 1", stub.geoCalls.Load())
		}
	})
}
