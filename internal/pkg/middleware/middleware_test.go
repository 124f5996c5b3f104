package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/logger"
)

func newTestLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Config{Level: "debug", Format: "json", Output: buf})
}

func TestRequestID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID, _ := r.Context().Value(logger.RequestIDKey).(string); reqID == "" {
			t.Error("expected request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates new request ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/videos/v1", nil))

		if len(rec.Header().Get(RequestIDHeader)) != 36 {
			t.Errorf("expected uuid request id, got %q", rec.Header().Get(RequestIDHeader))
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/videos/v1", nil)
		req.Header.Set(RequestIDHeader, "existing-id-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "existing-id-123" {
			t.Errorf("expected preserved request ID, got %s", got)
		}
	})
}

func TestLoggingLevels(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		expectedLevel string
	}{
		{"2xx logs info", 200, "INFO"},
		{"4xx logs warn", 409, "WARN"},
		{"5xx logs error", 503, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := Logging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/videos/generate", nil))

			out := buf.String()
			if !strings.Contains(out, "request completed") || !strings.Contains(out, tt.expectedLevel) {
				t.Errorf("expected %s request completed log, got: %s", tt.expectedLevel, out)
			}
			if !strings.Contains(out, "duration_ms") {
				t.Errorf("expected duration_ms in log, got: %s", out)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	handler := Recovery(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("expected INTERNAL_ERROR in body, got: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "test panic") {
		t.Errorf("expected panic message in log, got: %s", buf.String())
	}
}

func TestTimeout(t *testing.T) {
	t.Run("writes 504 when handler ran out of time", func(t *testing.T) {
		handler := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if rec.Code != http.StatusGatewayTimeout {
			t.Errorf("expected 504, got %d", rec.Code)
		}
	})

	t.Run("leaves fast responses alone", func(t *testing.T) {
		handler := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if rec.Code != http.StatusAccepted {
			t.Errorf("expected 202, got %d", rec.Code)
		}
	})
}

func TestLoggingRecordsSize(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	out := buf.String()
	if !strings.Contains(out, `"status":200`) || !strings.Contains(out, `"size":11`) {
		t.Errorf("expected status 200 and size 11, got: %s", out)
	}
}

func TestWrapHandler(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", errors.ValidationField("note", "note is required"), 400, "VALIDATION_ERROR"},
		{"not found", errors.NotFound("video", "v1"), 404, "NOT_FOUND"},
		{"conflict", errors.Conflict("video already exists"), 409, "CONFLICT"},
		{"queue unavailable", errors.QueueUnavailable("video-render", nil), 503, "QUEUE_UNAVAILABLE"},
		{"plain error", context.Canceled, 500, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := WrapHandler(log, func(w http.ResponseWriter, r *http.Request) error {
				return tt.err
			})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("PATCH", "/videos/v1/review/reject", nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}

			var env errorEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if env.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, env.Error.Code)
			}
		})
	}
}

func TestWriteErrorResponseEscapes(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, errors.CodeValidation, `bad "quote"`+"\n", map[string]any{"field": "note"})

	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("expected valid JSON: %v", err)
	}
	if env.Error.Message != `bad "quote"`+"\n" {
		t.Errorf("unexpected message %q", env.Error.Message)
	}
	if env.Error.Details["field"] != "note" {
		t.Errorf("unexpected details %v", env.Error.Details)
	}
}
