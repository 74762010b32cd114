// Package auth provides http.RoundTripper wrappers for COG hosts that sit
// behind API-key or bearer-token authentication.
package auth

import "net/http"

// send clones req, lets decorate mutate the clone's headers and forwards it
// to base (or the default transport). The original request is never touched,
// as required by the RoundTripper contract.
func send(req *http.Request, base http.RoundTripper, decorate func(http.Header)) (*http.Response, error) {
	clone := req.Clone(req.Context())
	decorate(clone.Header)
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

// APIKeyTransport injects an API key header into outgoing requests. Header
// defaults to Authorization.
type APIKeyTransport struct {
	Key    string
	Header string
	Base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *APIKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return send(req, t.Base, func(h http.Header) {
		if t.Key == "" {
			return
		}
		header := t.Header
		if header == "" {
			header = "Authorization"
		}
		h.Set(header, t.Key)
	})
}

// BearerTokenTransport injects a bearer token.
type BearerTokenTransport struct {
	Token string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return send(req, t.Base, func(h http.Header) {
		if t.Token != "" {
			h.Set("Authorization", "Bearer "+t.Token)
		}
	})
}
