package retrieval

import (
	"context"
	"fmt"

	"weather-cli/models"
	"weather-cli/providers"
)

// Stage names the part of a retrieval that failed.
type Stage string

const (
	StageCreate Stage = "create"
	StageFetch  Stage = "fetch"
)

// Error reports the stage a retrieval failed at. The provider error is
// reachable through errors.Is / errors.As.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retriever resolves a provider and runs one lookup with it.
type Retriever struct {
	opts []providers.Option
}

// New returns a Retriever whose providers are built with opts.
func New(opts ...providers.Option) *Retriever {
	return &Retriever{opts: opts}
}

// Retrieve builds the provider named by identity and fetches current
// conditions for location. No retries and no fallback provider: the first
// failure is returned.
func (r *Retriever) Retrieve(ctx context.Context, identity, apiKey, location string) (*models.WeatherData, error) {
	p, err := providers.New(identity, apiKey, r.opts...)
	if err != nil {
		return nil, &Error{Stage: StageCreate, Err: err}
	}

	weather, err := p.GetWeather(ctx, location)
	if err != nil {
		return nil, &Error{Stage: StageFetch, Err: err}
	}
	return weather, nil
}
