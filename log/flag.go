// Package log configures the slog logger of the command line from flags.
package log

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/bindings/go/registry/internal/flags/enum"
)

const (
	LevelFlag  = "loglevel"
	FormatFlag = "logformat"
)

func RegisterLoggingFlags(cmd *cobra.Command) {
	enum.Var(cmd.PersistentFlags(), LevelFlag, []string{
		"warn",
		"debug",
		"info",
		"error",
	}, "set the log level (debug, info, warn, error)")
	enum.VarP(cmd.PersistentFlags(), FormatFlag, "f", []string{
		"text",
		"json",
	}, "set the log format (text, json)")
}

// GetBaseLogger builds a logger writing to the error output of cmd.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := GetLoggerLevel(cmd)
	if err != nil {
		return nil, err
	}
	format, err := enum.Get(cmd.Flags(), FormatFlag)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return slog.New(handler), nil
}

func GetLoggerLevel(cmd *cobra.Command) (slog.Level, error) {
	logLevel, err := enum.Get(cmd.Flags(), LevelFlag)
	if err != nil {
		return slog.LevelWarn, err
	}
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", logLevel)
	}
	return level, nil
}
