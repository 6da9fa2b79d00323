package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shownames/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "shownames",
	Short:         "Show full names in forum @mentions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to config file")
}

// loadConfig reads the config file and builds the logger it asks for
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	// stdout carries decorated output, so logs go to stderr
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
