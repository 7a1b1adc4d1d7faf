package auth

import (
	"net/http"
	"net/url"
)

// Request is the view of an incoming HTTP request that a Pipeline needs. HTTPRequest
// adapts a *http.Request; other frameworks need only a similarly thin adapter.
type Request interface {
	// QueryValues returns every value of the named query parameter, in order
	QueryValues(name string) []string
	// Header returns the value of the named header, matched case-insensitively, or ""
	Header(name string) string
	// Method returns the request method as received
	Method() string
	// RequestURI returns the absolute URI of the request
	RequestURI() *url.URL
}

// HTTPRequest adapts r to the Request interface
func HTTPRequest(r *http.Request) Request {
	return &httpRequest{r: r}
}

type httpRequest struct {
	r     *http.Request
	query url.Values
}

func (h *httpRequest) QueryValues(name string) []string {
	if h.query == nil {
		h.query = h.r.URL.Query()
	}
	return h.query[name]
}

func (h *httpRequest) Header(name string) string {
	return h.r.Header.Get(name)
}

func (h *httpRequest) Method() string {
	return h.r.Method
}

// RequestURI reconstructs the absolute URI: server-side requests carry only the path
// and query in r.URL, so the scheme and host are filled in from the connection
func (h *httpRequest) RequestURI() *url.URL {
	u := *h.r.URL
	if u.Scheme == "" {
		u.Scheme = "http"
		if h.r.TLS != nil {
			u.Scheme = "https"
		}
	}
	if u.Host == "" {
		u.Host = h.r.Host
	}
	return &u
}
