//go:build unit

package catalog_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/domain/repositories"
	"github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/catalog"
)

func newTestCatalog(t *testing.T, handler http.HandlerFunc) repositories.CatalogRepository {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	repo, err := catalog.NewCatalogRepository(
		entities.CatalogSettings{BaseURL: server.URL + "/", Token: "catalog-token", Timeout: 5 * time.Second},
		entities.ImportSettings{},
	)
	require.NoError(t, err)
	return repo
}

func TestCatalogRepositoryRegisterLocation(t *testing.T) {
	t.Parallel()

	t.Run("should register the location and return the ingested entities", func(t *testing.T) {
		t.Parallel()

		// given
		var (
			path, dryRun, authorization string
			body                        map[string]string
		)
		repo := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			dryRun = r.URL.Query().Get("dryRun")
			authorization = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{
				"location": {"type": "url", "target": "https://github.com/acme/widgets/blob/main/catalog-info.yaml"},
				"entities": [{"apiVersion": "backstage.io/v1alpha1", "kind": "Component", "metadata": {"name": "widgets"}}]
			}`)
		})

		// when
		result, err := repo.RegisterLocation(context.Background(),
			"https://github.com/acme/widgets/blob/main/catalog-info.yaml", false)

		// then
		require.NoError(t, err)
		assert.Equal(t, "/api/catalog/locations", path)
		assert.Equal(t, "false", dryRun)
		assert.Equal(t, "Bearer catalog-token", authorization)
		assert.Equal(t, "url", body["type"])
		assert.Equal(t, "https://github.com/acme/widgets/blob/main/catalog-info.yaml", body["target"])
		require.Len(t, result.Entities, 1)
		assert.Equal(t, "component:default/widgets", result.Entities[0].Ref())
	})

	t.Run("should report an already registered location as existing", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newTestCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"error": {"name": "ConflictError", "message": "Location already exists"}}`)
		})

		// when
		result, err := repo.RegisterLocation(context.Background(), "https://github.com/acme/widgets", false)

		// then
		require.NoError(t, err)
		assert.True(t, result.Exists)
	})

	t.Run("should surface the catalog error message", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newTestCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": {"name": "InputError", "message": "Unable to read url"}}`)
		})

		// when
		_, err := repo.RegisterLocation(context.Background(), "https://github.com/acme/widgets", true)

		// then
		require.Error(t, err)
		assert.Equal(t, "Unable to read url", entities.ErrorMessage(err))
	})
}

func TestCatalogRepositoryQueryEntities(t *testing.T) {
	t.Parallel()

	// given
	var filter string
	repo := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		filter = r.URL.Query().Get("filter")
		fmt.Fprint(w, `{
			"items": [{
				"kind": "Component",
				"metadata": {
					"name": "widgets",
					"annotations": {"backstage.io/managed-by-location": "url:https://github.com/acme/other/blob/main/catalog-info.yaml"}
				}
			}],
			"totalItems": 1
		}`)
	})

	// when
	result, err := repo.QueryEntities(context.Background(), entities.EntityFilter{
		"kind":          "component",
		"metadata.name": "widgets",
	})

	// then
	require.NoError(t, err)
	assert.Equal(t, "kind=component,metadata.name=widgets", filter)
	assert.Equal(t, 1, result.TotalItems)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "https://github.com/acme/other/blob/main/catalog-info.yaml", result.Items[0].ManagedByLocation())
}

func TestCatalogRepositoryRefreshEntity(t *testing.T) {
	t.Parallel()

	t.Run("should request a refresh of the entity", func(t *testing.T) {
		t.Parallel()

		// given
		var body map[string]string
		repo := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusOK)
		})

		// when
		err := repo.RefreshEntity(context.Background(), "component:default/widgets")

		// then
		require.NoError(t, err)
		assert.Equal(t, "component:default/widgets", body["entityRef"])
	})

	t.Run("should return a backend error when the catalog rejects the refresh", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newTestCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		// when
		err := repo.RefreshEntity(context.Background(), "component:default/widgets")

		// then
		backendErr, ok := entities.AsBackendError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, backendErr.StatusCode)
	})
}
