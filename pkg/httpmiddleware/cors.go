package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to make cross-origin requests.
	// Empty, or a single "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists HTTP methods allowed in actual requests. Empty
	// falls back to the common REST verbs.
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. Empty echoes the
	// preflight's Access-Control-Request-Headers back.
	AllowHeaders []string

	// ExposeHeaders lists response headers the browser may read. The
	// storefront needs this for the session header.
	ExposeHeaders []string

	// AllowCredentials allows cookies and auth headers on cross-origin
	// requests. Browsers reject "*" combined with credentials, so the
	// middleware switches to echoing the specific origin in that case.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header; negative sends "0".
	MaxAge int
}

// cors is the precomputed per-server CORS state.
type cors struct {
	wildcard      bool
	origins       map[string]string // lowercased origin -> configured spelling
	methods       string
	headers       string
	exposeHeaders string
	credentials   bool
	maxAge        string
}

// CORS returns a middleware handling cross-origin requests: preflight
// responses, allow/expose headers, and Vary bookkeeping so shared caches
// never serve one origin's response to another.
func CORS(cfg CORSConfig) Middleware {
	c := &cors{
		wildcard:      len(cfg.AllowOrigins) == 0,
		origins:       make(map[string]string, len(cfg.AllowOrigins)),
		methods:       strings.Join(cfg.AllowMethods, ", "),
		headers:       strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders: strings.Join(cfg.ExposeHeaders, ", "),
		credentials:   cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.wildcard = true
			break
		}
		c.origins[strings.ToLower(o)] = o
	}
	// Wildcard plus credentials is invalid per the fetch spec: echo the
	// request origin instead.
	if c.credentials && c.wildcard {
		c.wildcard = false
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin request. Still vary on Origin when responses
				// differ per origin.
				if !c.wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if isPreflight(r) {
				c.preflight(w, r, origin)
				return
			}

			if !c.wildcard {
				w.Header().Add("Vary", "Origin")
			}
			if allow := c.allowValue(origin); allow != "" {
				w.Header().Set("Access-Control-Allow-Origin", allow)
				if c.credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if c.exposeHeaders != "" {
					w.Header().Set("Access-Control-Expose-Headers", c.exposeHeaders)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

func (c *cors) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	allow := c.allowValue(origin)
	if allow == "" {
		// Disallowed origin: 204 without CORS headers, the browser blocks it.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.Set("Access-Control-Allow-Origin", allow)
	h.Set("Access-Control-Allow-Methods", c.methods)
	switch {
	case c.headers != "":
		h.Set("Access-Control-Allow-Headers", c.headers)
	default:
		if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
			h.Set("Access-Control-Allow-Headers", req)
		}
	}
	if c.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		h.Set("Access-Control-Max-Age", c.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}

// allowValue returns the Access-Control-Allow-Origin value for a request
// origin, or "" when the origin is not allowed. Matching is
// case-insensitive; the configured spelling is echoed back.
func (c *cors) allowValue(origin string) string {
	if c.wildcard {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}
