package utils

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger and returns it.
// format is "console" for human output; anything else emits JSON.
func InitLogger(app, level, format string) zerolog.Logger {
	return initLogger(os.Stdout, app, level, format)
}

func initLogger(out io.Writer, app, level, format string) zerolog.Logger {
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	logger := zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestLogger logs one http_request event per request. route names the
// matched route template so paths with ids do not explode cardinality.
func RequestLogger(logger zerolog.Logger, route func(*http.Request) string, done func(r *http.Request, route string, status int)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			path := r.URL.Path
			if route != nil {
				if tpl := route(r); tpl != "" {
					path = tpl
				}
			}

			event := logger.Info()
			if rec.status >= 500 {
				event = logger.Error()
			} else if rec.status >= 400 {
				event = logger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Int("bytes", rec.bytes).
				Msg("http_request")

			if done != nil {
				done(r, path, rec.status)
			}
		})
	}
}
