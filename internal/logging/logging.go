// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const serviceName = "clinicsched-server"

// New returns a JSON logger on stdout, or a human readable console logger
// when format is "console".
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// DatabaseFields describes a connection URL for logging without its
// credentials.
func DatabaseFields(databaseURL string) map[string]interface{} {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return map[string]interface{}{"db_url": "invalid"}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return map[string]interface{}{
		"db_host": host,
		"db_port": port,
		"db_name": name,
	}
}
