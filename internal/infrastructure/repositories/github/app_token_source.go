package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/transport"
)

const (
	jwtBackdate     = 60 * time.Second
	jwtLifetime     = 9 * time.Minute
	tokenAttempts   = 3
	tokenRetryDelay = time.Second
)

// appTokenSource mints GitHub App installation tokens. Each token is signed
// for with a short-lived RS256 JWT issued for the App.
type appTokenSource struct {
	appID          int64
	installationID int64
	key            *rsa.PrivateKey
	client         *gh.Client
	timeout        time.Duration
	now            func() time.Time
}

var _ oauth2.TokenSource = (*appTokenSource)(nil)

func newAppTokenSource(
	settings *entities.GitHubAppSettings,
	client *gh.Client,
	timeout time.Duration,
) (*appTokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(settings.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse GitHub App private key: %w", err)
	}

	return &appTokenSource{
		appID:          settings.AppID,
		installationID: settings.InstallationID,
		key:            key,
		client:         client,
		timeout:        timeout,
		now:            time.Now,
	}, nil
}

// Token exchanges a fresh JWT for an installation token. Transient failures
// are retried a few times; rejected credentials are not.
func (s *appTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout*tokenAttempts)
	defer cancel()

	return transport.Retry(ctx, tokenAttempts, tokenRetryDelay, s.fetch)
}

func (s *appTokenSource) fetch(ctx context.Context) (*oauth2.Token, error) {
	signed, err := s.signJWT()
	if err != nil {
		return nil, transport.Permanent(fmt.Errorf("failed to sign GitHub App JWT: %w", err))
	}

	req, err := s.client.NewRequest(
		http.MethodPost,
		fmt.Sprintf("app/installations/%d/access_tokens", s.installationID),
		nil,
	)
	if err != nil {
		return nil, transport.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+signed)

	installationToken := new(gh.InstallationToken)
	resp, err := s.client.Do(ctx, req, installationToken)
	if err != nil {
		backendErr := classify(resp, err)
		status := 0
		if resp != nil {
			status = statusOf(resp.Response)
		}
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError &&
			status != http.StatusTooManyRequests {
			return nil, transport.Permanent(backendErr)
		}
		logger.Warnf("[%s] Installation token request failed, retrying: %v", providerName, backendErr)
		return nil, backendErr
	}

	logger.Debugf("[%s] Acquired installation token for installation %d", providerName, s.installationID)
	return &oauth2.Token{
		AccessToken: installationToken.GetToken(),
		TokenType:   "Bearer",
		Expiry:      installationToken.GetExpiresAt().Time,
	}, nil
}

func (s *appTokenSource) signJWT() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatInt(s.appID, 10),
		IssuedAt:  jwt.NewNumericDate(now.Add(-jwtBackdate)),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
}
