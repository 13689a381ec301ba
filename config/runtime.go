package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Runtime holds process-level settings read from the environment.
type Runtime struct {
	LogLevel  string `env:"DILEMMA_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"DILEMMA_LOG_FORMAT" envDefault:"console"`
	DataDir   string `env:"DILEMMA_DATA_DIR" envDefault:"data"`
	DBPath    string `env:"DILEMMA_DB_PATH"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadRuntime reads the runtime settings.
func LoadRuntime() (Runtime, error) {
	var r Runtime
	if err := ParseEnv(&r); err != nil {
		return Runtime{}, err
	}
	return r, nil
}

// Path resolves name inside the data directory.
func (r Runtime) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.DataDir, name)
}

// NewLogger builds a logger writing to w. format is "json" or "console".
func NewLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), &Error{Field: "log_level", Err: err}
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(format) {
	case "json":
	case "console", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	default:
		return zerolog.Nop(), &Error{Field: "log_format", Reason: fmt.Sprintf("unknown format %q", format)}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
