package transport

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"
)

const (
	retryWaitMin = 200 * time.Millisecond
	retryWaitMax = 2 * time.Second
)

// ReadRetryTransport retries idempotent reads (GET, HEAD) on transient
// failures. Every other method goes straight to the base transport: a
// mutation that timed out may still have been applied, so it is never resent.
type ReadRetryTransport struct {
	reads  http.RoundTripper
	writes http.RoundTripper
}

// NewReadRetryTransport wraps base with up to retries extra attempts for reads.
func NewReadRetryTransport(base http.RoundTripper, retries int, provider string) *ReadRetryTransport {
	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Transport: base}
	client.RetryMax = retries
	client.RetryWaitMin = retryWaitMin
	client.RetryWaitMax = retryWaitMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger{entry: logger.WithField("provider", provider)}

	return &ReadRetryTransport{
		reads:  &retryablehttp.RoundTripper{Client: client},
		writes: base,
	}
}

func (t *ReadRetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return t.reads.RoundTrip(req)
	default:
		return t.writes.RoundTrip(req)
	}
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger.
type leveledLogger struct {
	entry *logger.Entry
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Error(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l leveledLogger) with(keysAndValues []interface{}) *logger.Entry {
	fields := logger.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return l.entry.WithFields(fields)
}
