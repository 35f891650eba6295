package server

import (
	"net/http"
	"time"

	"github.com/sambeau/viewscope/pkg/viewscope/logging"
)

// responseCapture wraps http.ResponseWriter to capture status code
type responseCapture struct {
	http.ResponseWriter
	status int
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.status = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if rc.status == 0 {
		rc.status = http.StatusOK
	}
	return rc.ResponseWriter.Write(b)
}

// requestLogger logs one entry per request. Server errors are logged at
// error level, everything else at info.
type requestLogger struct {
	handler http.Handler
	log     *logging.Logger
}

func newRequestLogger(handler http.Handler, log *logging.Logger) *requestLogger {
	return &requestLogger{handler: handler, log: log}
}

func (rl *requestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rc := &responseCapture{ResponseWriter: w}
	rl.handler.ServeHTTP(rc, r)
	duration := time.Since(start)

	clientIP := r.RemoteAddr
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		clientIP = xff
	}

	kv := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", rc.status,
		"duration_ms", duration.Milliseconds(),
		"client_ip", clientIP,
	}
	if ua := r.UserAgent(); ua != "" {
		kv = append(kv, "user_agent", ua)
	}
	if rc.status >= http.StatusInternalServerError {
		rl.log.Error("request", kv...)
		return
	}
	rl.log.Info("request", kv...)
}
