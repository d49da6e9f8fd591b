package transport

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitTransport spaces outbound requests to respect the backend's rate limits.
type RateLimitTransport struct {
	Limiter *rate.Limiter
	Base    http.RoundTripper
}

func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.Base.RoundTrip(req)
}

// NewLimiter builds a limiter for the given requests per second, or nil when disabled.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
