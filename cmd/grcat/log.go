package main

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

var logLevel = func() charmlog.Level {
	switch os.Getenv("GRCAT_LOG_LEVEL") {
	case "debug":
		return charmlog.DebugLevel
	case "info":
		return charmlog.InfoLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.ErrorLevel
	}
}()

func newLogger(w io.Writer, prefix string) *slog.Logger {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix: prefix,
		Level:  logLevel,
	})
	return slog.New(handler)
}
