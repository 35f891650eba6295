package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sambeau/viewscope/pkg/viewscope/logging"
)

func TestRequestLoggerText(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var buf bytes.Buffer
	logger := newRequestLogger(handler, logging.New(&buf, logging.LevelInfo, "text"))

	req := httptest.NewRequest("GET", "/test/path", nil)
	rec := httptest.NewRecorder()
	logger.ServeHTTP(rec, req)

	log := buf.String()
	for _, want := range []string{"INFO", "request", "GET", "/test/path", "200"} {
		if !strings.Contains(log, want) {
			t.Errorf("log should contain %q: %s", want, log)
		}
	}
}

func TestRequestLoggerJSON(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	var buf bytes.Buffer
	logger := newRequestLogger(handler, logging.New(&buf, logging.LevelInfo, "json"))

	req := httptest.NewRequest("GET", "/broken", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	logger.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log is not JSON: %v\n%s", err, buf.String())
	}
	checks := map[string]any{
		"path":       "/broken",
		"status":     float64(500),
		"client_ip":  "10.0.0.1",
		"user_agent": "test-agent",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s = %#v, want %#v", k, entry[k], want)
		}
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("server errors should be logged at error level: %s", buf.String())
	}
}

func TestResponseCaptureDefaultStatus(t *testing.T) {
	rc := &responseCapture{ResponseWriter: httptest.NewRecorder()}
	rc.Write([]byte("x"))
	if rc.status != http.StatusOK {
		t.Errorf("status = %d, want 200", rc.status)
	}
}
