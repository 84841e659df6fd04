package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide root logger. Components derive their own
// sub-loggers via WithComponent instead of logging through this directly.
// The default writes to stderr so code paths exercised before Init (tests,
// mostly) still have a working logger.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the root logger. Unknown levels fall back to info.
func Init(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stdout
	if os.Getenv("ENV") == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	Logger = zerolog.New(out).With().Timestamp().Logger()
}

// WithComponent returns a logger tagged with a component field.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
