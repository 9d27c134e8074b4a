package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Logger().SetOutput(&buf)
	t.Cleanup(func() { Logger().SetOutput(os.Stdout) })
	return &buf
}

func TestLogRequestEmitsJSONLine(t *testing.T) {
	buf := captureLog(t)

	LogRequest(map[string]any{
		"msg":    "http_request",
		"method": "POST",
		"path":   "/auth/login",
		"status": 200,
	})

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	if entry["msg"] != "http_request" || entry["path"] != "/auth/login" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestWarnIncludesLevelAndFields(t *testing.T) {
	buf := captureLog(t)

	Warn("breach corpus lookup failed, failing open", map[string]any{
		"error": "connection refused",
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("warn line is not JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["error"] != "connection refused" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["ts"] == "" {
		t.Fatalf("timestamp missing")
	}
}

func TestInstrumentTracksStatus(t *testing.T) {
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status not propagated, got %d", rec.Code)
	}
}

func TestInstrumentDefaultsTo200(t *testing.T) {
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", rec.Code)
	}
}
