package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures CORS.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. Empty or "*" allows any origin.
	AllowOrigins []string
	// AllowMethods defaults to the methods used by the wizard API.
	AllowMethods []string
	// AllowHeaders, when empty, echoes Access-Control-Request-Headers.
	AllowHeaders  []string
	ExposeHeaders []string
	// AllowCredentials disables the "*" origin; matching origins are echoed.
	AllowCredentials bool
	// MaxAge in seconds for preflight caching. Zero omits the header.
	MaxAge int
}

var defaultCORSMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

type cors struct {
	anyOrigin bool
	origins   map[string]string // lowercase -> configured
	methods   string
	headers   string
	expose    string
	creds     bool
	maxAge    string
}

func newCORS(cfg CORSConfig) *cors {
	c := &cors{
		anyOrigin: len(cfg.AllowOrigins) == 0,
		origins:   make(map[string]string, len(cfg.AllowOrigins)),
		methods:   strings.Join(cfg.AllowMethods, ", "),
		headers:   strings.Join(cfg.AllowHeaders, ", "),
		expose:    strings.Join(cfg.ExposeHeaders, ", "),
		creds:     cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.anyOrigin = true
			continue
		}
		c.origins[strings.ToLower(o)] = o
	}
	if c.creds && c.anyOrigin {
		// A credentialed "*" is invalid; echo whatever origin asks instead.
		c.anyOrigin = false
		c.origins = nil
	}
	if c.methods == "" {
		c.methods = strings.Join(defaultCORSMethods, ", ")
	}
	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}
	return c
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or ""
// when it is not allowed.
func (c *cors) allowOrigin(origin string) string {
	switch {
	case c.anyOrigin:
		return "*"
	case c.origins == nil:
		return origin
	default:
		return c.origins[strings.ToLower(origin)]
	}
}

func (c *cors) preflight(w http.ResponseWriter, r *http.Request, allow string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")
	if allow != "" {
		h.Set("Access-Control-Allow-Origin", allow)
		h.Set("Access-Control-Allow-Methods", c.methods)
		if c.headers != "" {
			h.Set("Access-Control-Allow-Headers", c.headers)
		} else if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
			h.Set("Access-Control-Allow-Headers", req)
		}
		if c.creds {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if c.maxAge != "" {
			h.Set("Access-Control-Max-Age", c.maxAge)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// CORS handles Cross-Origin Resource Sharing. Preflight requests are answered
// directly with 204.
func CORS(cfg CORSConfig) Middleware {
	c := newCORS(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				if !c.anyOrigin {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			allow := c.allowOrigin(origin)
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, allow)
				return
			}

			h := w.Header()
			if !c.anyOrigin {
				h.Add("Vary", "Origin")
			}
			if allow != "" {
				h.Set("Access-Control-Allow-Origin", allow)
				if c.creds {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if c.expose != "" {
					h.Set("Access-Control-Expose-Headers", c.expose)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
