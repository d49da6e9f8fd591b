package transport

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"
)

// ClientOptions assembles the HTTP client of one provider session.
type ClientOptions struct {
	Provider    string
	Tokens      *TokenCache // nil sends requests unauthenticated
	Timeout     time.Duration
	ReadRetries int
	Limiter     *rate.Limiter // nil disables rate limiting
	Base        http.RoundTripper
}

// NewClient builds the layered client: auth (refresh on 401) -> rate limit ->
// read retries -> base transport. The timeout bounds every single call.
func NewClient(opts ClientOptions) *http.Client {
	base := opts.Base
	if base == nil {
		base = cleanhttp.DefaultPooledTransport()
	}

	var roundTripper http.RoundTripper = NewReadRetryTransport(base, opts.ReadRetries, opts.Provider)
	if opts.Limiter != nil {
		roundTripper = &RateLimitTransport{Limiter: opts.Limiter, Base: roundTripper}
	}
	if opts.Tokens != nil {
		roundTripper = &AuthTransport{Provider: opts.Provider, Tokens: opts.Tokens, Base: roundTripper}
	}

	return &http.Client{
		Transport: roundTripper,
		Timeout:   opts.Timeout,
	}
}
