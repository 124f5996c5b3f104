package httpkit

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSOptions configures CORS. An origin of "*" allows any origin.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	headers   map[string]string
}

func newCORSPolicy(opt CORSOptions) *corsPolicy {
	if len(opt.AllowedMethods) == 0 {
		opt.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}
	}
	if len(opt.AllowedHeaders) == 0 {
		opt.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
	if opt.MaxAge == 0 {
		opt.MaxAge = 600
	}

	p := &corsPolicy{
		origins: make(map[string]struct{}, len(opt.AllowedOrigins)),
		headers: map[string]string{
			"Access-Control-Allow-Methods": strings.Join(opt.AllowedMethods, ", "),
			"Access-Control-Allow-Headers": strings.Join(opt.AllowedHeaders, ", "),
			"Access-Control-Max-Age":       strconv.Itoa(opt.MaxAge),
		},
	}
	for _, o := range opt.AllowedOrigins {
		switch o = strings.TrimRight(strings.TrimSpace(o), "/"); o {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	if len(opt.ExposedHeaders) > 0 {
		p.headers["Access-Control-Expose-Headers"] = strings.Join(opt.ExposedHeaders, ", ")
	}
	if opt.AllowCredentials {
		p.headers["Access-Control-Allow-Credentials"] = "true"
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS answers preflight requests itself and decorates allowed origins on
// every other request.
func CORS(opt CORSOptions) func(http.Handler) http.Handler {
	p := newCORSPolicy(opt)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if p.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				for k, v := range p.headers {
					h.Set(k, v)
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
