// Package gateway assembles the HTTP handlers served by hmacauth: an authenticating
// reverse proxy, and an admin router exposing health, metrics and a live decision feed.
package gateway

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/golden-vcr/hmac-auth/auth"
	"github.com/golden-vcr/hmac-auth/entry"
)

// NewProxy returns a handler that authenticates every request with p, then forwards
// it to upstream with principalHeader set to the authenticated principal. Any value
// the client supplied for principalHeader is discarded.
func NewProxy(p *auth.Pipeline[string], upstream *url.URL, principalHeader string) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
			pr.Out.Header.Del(principalHeader)
			if principal, ok := auth.PrincipalFrom[string](pr.In.Context()); ok {
				pr.Out.Header.Set(principalHeader, principal)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			entry.Log(r).Error("Failed to proxy request upstream", "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	r := chi.NewRouter()
	r.Use(auth.Middleware(p))
	r.Handle("/*", proxy)
	return r
}

// NewAdmin returns the admin router, readable cross-origin so that dashboards can
// subscribe to /decisions. decisions may be nil, in which case /decisions is not
// served.
func NewAdmin(gatherer prometheus.Gatherer, decisions http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/plain")
		w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if decisions != nil {
		r.Get("/decisions", decisions.ServeHTTP)
	}
	return r
}

// FilterDecisions matches decisions against the 'outcome' and 'principal' query
// parameters of a /decisions request; an absent parameter matches everything.
func FilterDecisions(req *http.Request, d auth.Decision) bool {
	q := req.URL.Query()
	if outcome := q.Get("outcome"); outcome != "" && outcome != d.Outcome {
		return false
	}
	if principal := q.Get("principal"); principal != "" && principal != d.Principal {
		return false
	}
	return true
}

// Feed returns a DecisionFunc that hands decisions to ch without blocking; decisions
// are dropped while ch is full.
func Feed(ch chan<- auth.Decision) auth.DecisionFunc {
	return func(_ context.Context, d auth.Decision) {
		select {
		case ch <- d:
		default:
		}
	}
}
