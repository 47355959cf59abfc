package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"weather-cli/config"
	"weather-cli/models"
	"weather-cli/providers"
	"weather-cli/retrieval"
)

const (
	exitFailure = 1
	exitConfig  = 2
)

// exitError carries the process exit code for a failed command. reported is
// set when the command already rendered the error itself.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// app holds what the commands share.
type app struct {
	settings *config.Settings
	store    *config.FileStore
	logger   *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weather",
		Short:         "Current weather from a configured provider",
		Long:          "Fetches current conditions for an address from the previously configured weather provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newConfigureCmd(a), newGetCmd(a), newProvidersCmd(a))
	return rootCmd
}

func providerNames() []string {
	kinds := providers.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func newConfigureCmd(a *app) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:       "configure <PROVIDER>",
		Short:     "Select the weather data provider",
		Long:      fmt.Sprintf("Persists the provider and its API key. Known providers: %s", strings.Join(providerNames(), ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: providerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.resolveAPIKey(cmd, args[0], apiKey)
			if err != nil {
				return &exitError{code: exitConfig, err: err}
			}

			if err := a.store.Save(config.Selection{Provider: args[0], APIKey: key}); err != nil {
				return &exitError{code: exitConfig, err: err}
			}

			a.logger.Debug("provider configured", slog.String("provider", strings.ToLower(args[0])), slog.String("path", a.store.Path()))
			fmt.Fprintf(cmd.OutOrStdout(), "provider set to %s\n", strings.ToLower(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the provider (defaults to WEATHER_API_KEY, the key stored for the same provider, or stdin)")
	return cmd
}

// resolveAPIKey picks the credential for configure: flag, environment,
// the stored key when it belongs to the same provider, then one line from
// stdin.
func (a *app) resolveAPIKey(cmd *cobra.Command, provider, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if a.settings.APIKey != "" {
		return a.settings.APIKey, nil
	}
	if stored, err := a.store.Load(); err == nil {
		if strings.EqualFold(stored.Provider, provider) {
			return stored.APIKey, nil
		}
		a.logger.Debug("stored api key belongs to another provider", slog.String("stored", stored.Provider))
		fmt.Fprintf(cmd.ErrOrStderr(), "stored API key is for %s; enter the key for %s\n", stored.Provider, strings.ToLower(provider))
	}

	fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read api key: %w", err)
		}
		return "", fmt.Errorf("%w: api_key is required", config.ErrInvalidSelection)
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func newGetCmd(a *app) *cobra.Command {
	var (
		date   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "get <ADDRESS>",
		Short: "Get current weather for an address from the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return &exitError{code: exitFailure, err: fmt.Errorf("unknown output format %q (text, json)", output)}
			}
			if date != "" {
				a.logger.Debug("--date is accepted but not used; current conditions are returned", slog.String("date", date))
			}

			provider, apiKey, err := a.selection()
			if err != nil {
				return a.fail(cmd, output, exitConfig, err)
			}

			retriever := retrieval.New(
				providers.WithHTTPClient(&http.Client{Timeout: a.settings.HTTPTimeout}),
				providers.WithEndpoints(a.settings.Endpoints()),
			)

			a.logger.Debug("fetching weather", slog.String("provider", provider), slog.String("address", args[0]))

			weather, err := retriever.Retrieve(cmd.Context(), provider, apiKey, args[0])
			if err != nil {
				code := exitFailure
				var re *retrieval.Error
				if errors.As(err, &re) && re.Stage == retrieval.StageCreate {
					code = exitConfig
				}
				return a.fail(cmd, output, code, err)
			}

			return render(cmd.OutOrStdout(), output, weather)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date of interest (accepted, current conditions are always returned)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	return cmd
}

// selection reads the configured provider. WEATHER_API_KEY overrides the
// stored key.
func (a *app) selection() (string, string, error) {
	provider, err := a.store.Get(config.KeyProvider)
	if err != nil {
		return "", "", err
	}

	apiKey := a.settings.APIKey
	if apiKey == "" {
		apiKey, err = a.store.Get(config.KeyAPIKey)
		if err != nil {
			return "", "", err
		}
	}
	return provider, apiKey, nil
}

// fail renders err as a JSON envelope in json mode; in text mode main prints it.
func (a *app) fail(cmd *cobra.Command, output string, code int, err error) error {
	a.logger.Debug("command failed", slog.Any("error", err))

	if output != "json" {
		return &exitError{code: code, err: err}
	}

	resp := models.ErrorResponse{Error: "failed to get weather", Details: err.Error()}
	if kind := providers.KindOf(err); kind != 0 {
		resp.Kind = kind.String()
	} else if code == exitConfig {
		resp.Kind = "configuration"
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(resp); encErr != nil {
		return &exitError{code: code, err: err}
	}
	return &exitError{code: code, err: err, reported: true}
}

func render(w io.Writer, output string, weather *models.WeatherData) error {
	if output == "json" {
		data, err := json.MarshalIndent(weather, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	_, err := fmt.Fprint(w, weather.String())
	return err
}

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the known weather providers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			configured, _ := a.store.Get(config.KeyProvider)

			out := cmd.OutOrStdout()
			for _, name := range providerNames() {
				if name == strings.ToLower(configured) {
					fmt.Fprintf(out, "✓ %s (configured)\n", name)
					continue
				}
				fmt.Fprintf(out, "  %s\n", name)
			}
		},
	}
}
