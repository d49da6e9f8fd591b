package transport

import (
	"fmt"
	"io"
	"net/http"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// AuthTransport authorizes each request with the session token. When the
// backend answers 401 it refreshes the token and replays that single request
// once; the rest of the caller's call sequence is untouched.
type AuthTransport struct {
	Provider string
	Tokens   *TokenCache
	Base     http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %w", t.Provider, err)
	}

	retryReq, replayable := rewind(req)

	resp, err := t.Base.RoundTrip(authorize(req, token))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	t.Tokens.Invalidate(token)
	fresh, refreshErr := t.Tokens.Token()
	if refreshErr != nil {
		logger.Warnf("[%s] Token refresh failed after 401: %v", t.Provider, refreshErr)
		return resp, nil
	}
	if fresh.AccessToken == token.AccessToken || !replayable {
		return resp, nil
	}

	logger.Debugf("[%s] Token expired, replaying %s %s", t.Provider, req.Method, req.URL.Path)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return t.Base.RoundTrip(authorize(retryReq, fresh))
}

func authorize(req *http.Request, token *oauth2.Token) *http.Request {
	authorized := req.Clone(req.Context())
	token.SetAuthHeader(authorized)
	return authorized
}

// rewind prepares a copy of the request whose body can be sent again.
func rewind(req *http.Request) (*http.Request, bool) {
	replay := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return replay, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	replay.Body = body
	return replay, true
}
