package log

import (
	"io"
	"time"

	"github.com/gorilla/handlers"
)

// HTTPLogEntry represents an HTTP request/response log entry
type HTTPLogEntry struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
}

// LogHTTPRequest writes one access log line. Server errors are logged at error level.
func LogHTTPRequest(e HTTPLogEntry) {
	kv := []interface{}{
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"duration_ms", e.Duration.Milliseconds(),
		"size", e.Size,
		"remote_addr", e.RemoteAddr,
		"user_agent", e.UserAgent,
	}
	if e.Status >= 500 {
		GetSugaredLogger().Errorw("http request", kv...)
		return
	}
	GetSugaredLogger().Infow("http request", kv...)
}

// HTTPLogFormatter adapts LogHTTPRequest to handlers.CustomLoggingHandler.
// The writer handed in by the middleware is ignored.
func HTTPLogFormatter(_ io.Writer, params handlers.LogFormatterParams) {
	LogHTTPRequest(HTTPLogEntry{
		Method:     params.Request.Method,
		Path:       params.URL.Path,
		Status:     params.StatusCode,
		Duration:   time.Since(params.TimeStamp),
		Size:       params.Size,
		RemoteAddr: params.Request.RemoteAddr,
		UserAgent:  params.Request.UserAgent(),
	})
}
