package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := CORS(CORSOptions{
		AllowedOrigins: []string{" https://studio.example/ ", ""},
		ExposedHeaders: []string{"X-Request-ID"},
	})(next)

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed bool
	}{
		{"allowed origin", http.MethodGet, "https://studio.example", false, http.StatusTeapot, true},
		{"unknown origin", http.MethodGet, "https://evil.example", false, http.StatusTeapot, false},
		{"no origin", http.MethodGet, "", false, http.StatusTeapot, false},
		{"preflight", http.MethodOptions, "https://studio.example", true, http.StatusNoContent, true},
		{"plain options", http.MethodOptions, "https://studio.example", false, http.StatusTeapot, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/videos/v1", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllowed && got != tt.origin {
				t.Errorf("expected allow origin %q, got %q", tt.origin, got)
			}
			if !tt.wantAllowed && got != "" {
				t.Errorf("expected no allow origin, got %q", got)
			}
			if tt.wantAllowed && rec.Header().Get("Access-Control-Expose-Headers") != "X-Request-ID" {
				t.Errorf("expected exposed headers, got %q", rec.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

func TestCORSWildcard(t *testing.T) {
	h := CORS(CORSOptions{AllowedOrigins: []string{"*"}, AllowCredentials: true})(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected origin echoed, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials header")
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", `{"name":"ep1"}`, false},
		{"unknown field", `{"name":"ep1","extra":true}`, true},
		{"malformed", `{"name":`, true},
		{"too large", `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.in))
			var b body
			err := DecodeJSON(req, &b)
			if tt.wantErr != (err != nil) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && b.Name != "ep1" {
				t.Errorf("expected name ep1, got %q", b.Name)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusAccepted, map[string]string{"status": "queued"})

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"queued"}` {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
