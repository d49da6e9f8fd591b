package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/domain/repositories"
	"github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/transport"
)

const (
	serviceName      = "catalog"
	locationsPath    = "/api/catalog/locations"
	entitiesByQuery  = "/api/catalog/entities/by-query"
	refreshPath      = "/api/catalog/refresh"
	locationTypeURL  = "url"
	maxErrorBodySize = 64 << 10
)

// CatalogRepository talks to the Backstage catalog REST API.
type CatalogRepository struct {
	baseURL string
	client  *http.Client
}

type locationRequest struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

type locationResponse struct {
	Exists   bool                     `json:"exists"`
	Entities []entities.CatalogEntity `json:"entities"`
}

type queryResponse struct {
	Items      []entities.CatalogEntity `json:"items"`
	TotalItems int                      `json:"totalItems"`
}

type refreshRequest struct {
	EntityRef string `json:"entityRef"`
}

type errorResponse struct {
	Error struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewCatalogRepository creates the catalog client of one import session.
func NewCatalogRepository(
	settings entities.CatalogSettings,
	importSettings entities.ImportSettings,
) (repositories.CatalogRepository, error) {
	if _, err := url.ParseRequestURI(settings.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base URL %q: %w", settings.BaseURL, err)
	}

	opts := transport.ClientOptions{
		Provider:    serviceName,
		Timeout:     settings.Timeout,
		ReadRetries: importSettings.ReadRetries,
	}
	if settings.Token != "" {
		opts.Tokens = transport.NewTokenCache(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: settings.Token}))
	}

	return &CatalogRepository{
		baseURL: strings.TrimSuffix(settings.BaseURL, "/"),
		client:  transport.NewClient(opts),
	}, nil
}

// RegisterLocation registers the target as a "url" location. A location the
// catalog already knows is reported as existing rather than as a failure.
func (r *CatalogRepository) RegisterLocation(
	ctx context.Context,
	target string,
	dryRun bool,
) (entities.LocationResult, error) {
	query := url.Values{}
	query.Set("dryRun", strconv.FormatBool(dryRun))

	var response locationResponse
	status, err := r.do(ctx, http.MethodPost, locationsPath+"?"+query.Encode(),
		locationRequest{Type: locationTypeURL, Target: target}, &response)
	if status == http.StatusConflict {
		logger.Debugf("[%s] Location %s is already registered", serviceName, target)
		return entities.LocationResult{Exists: true}, nil
	}
	if err != nil {
		return entities.LocationResult{}, fmt.Errorf("failed to register location %s: %w", target, err)
	}

	return entities.LocationResult{Exists: response.Exists, Entities: response.Entities}, nil
}

func (r *CatalogRepository) QueryEntities(
	ctx context.Context,
	filter entities.EntityFilter,
) (entities.EntityQueryResult, error) {
	query := url.Values{}
	query.Set("filter", filter.String())

	var response queryResponse
	if _, err := r.do(ctx, http.MethodGet, entitiesByQuery+"?"+query.Encode(), nil, &response); err != nil {
		return entities.EntityQueryResult{}, fmt.Errorf("failed to query entities %q: %w", filter.String(), err)
	}

	return entities.EntityQueryResult{Items: response.Items, TotalItems: response.TotalItems}, nil
}

func (r *CatalogRepository) RefreshEntity(ctx context.Context, entityRef string) error {
	if _, err := r.do(ctx, http.MethodPost, refreshPath, refreshRequest{EntityRef: entityRef}, nil); err != nil {
		return fmt.Errorf("failed to refresh %s: %w", entityRef, err)
	}
	return nil
}

// do sends a JSON request and decodes a JSON answer into out. Non-2xx answers
// come back as *entities.BackendError together with their status code.
func (r *CatalogRepository) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, entities.NewBackendError(serviceName, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, entities.NewBackendError(serviceName, resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return resp.StatusCode, entities.NewBackendError(
			serviceName, resp.StatusCode, fmt.Sprintf("invalid response body: %v", decodeErr),
		)
	}
	return resp.StatusCode, nil
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var parsed errorResponse
	if jsonErr := json.Unmarshal(raw, &parsed); jsonErr == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
