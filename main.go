package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"weather-cli/config"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(exitConfig)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: settings.Level()}))

	a := &app{
		settings: settings,
		store:    config.NewFileStore(settings.ConfigFile),
		logger:   logger,
	}

	rootCmd := newRootCmd(a)
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if !ee.reported {
				fmt.Fprintf(os.Stderr, "error: %v\n", ee.err)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitFailure)
	}
}
