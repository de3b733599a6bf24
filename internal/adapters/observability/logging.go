package observability

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger writing to w.
// APP_ENV=dev (or development) uses a human-friendly console writer and debug level.
func NewLogger(env string, w io.Writer) zerolog.Logger {
	if env == "dev" || env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}
