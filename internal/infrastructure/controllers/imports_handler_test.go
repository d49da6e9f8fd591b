//go:build unit

package controllers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/infrastructure/controllers"
	"github.com/rios0rios0/bulkimport/test/domain/commanddoubles"
)

func newTestRouter(batch *commanddoubles.StubBatchCommand, discovery *commanddoubles.StubDiscoveryCommand) *gin.Engine {
	gin.SetMode(gin.TestMode)
	settings := &entities.Settings{}
	return controllers.NewRouter(controllers.RouterDeps{
		Imports:   controllers.NewImportsHandler(batch, settings),
		Discovery: controllers.NewDiscoveryHandler(discovery, settings),
	})
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestImportsHandlerCreate(t *testing.T) {
	t.Parallel()

	t.Run("should accept the batch and answer the results in order", func(t *testing.T) {
		t.Parallel()

		// given
		batch := &commanddoubles.StubBatchCommand{Results: []entities.ImportStatus{
			{ApprovalTool: entities.ApprovalToolGitHub, Status: entities.StatusAdded, Errors: []string{}},
			{ApprovalTool: entities.ApprovalToolGitLab, Status: entities.StatusPRError, Errors: []string{"boom"}},
		}}
		router := newTestRouter(batch, &commanddoubles.StubDiscoveryCommand{})
		body := `[
			{"approvalTool": "GITHUB", "repository": {"url": "https://github.com/acme/widgets"}},
			{"approvalTool": "GITLAB", "repository": {"url": "https://gitlab.com/acme/gadgets"},
			 "gitlab": {"pullRequest": {"title": "Onboard gadgets"}}}
		]`

		// when
		recorder := serve(router, http.MethodPost, "/imports?dryRun=true", body)

		// then
		assert.Equal(t, http.StatusAccepted, recorder.Code)
		assert.NotEmpty(t, recorder.Header().Get("X-Request-Id"))
		assert.True(t, batch.LastDryRun)
		require.Len(t, batch.LastRequests, 2)
		assert.Equal(t, "https://gitlab.com/acme/gadgets", batch.LastRequests[1].Repository.URL)
		assert.Equal(t, "Onboard gadgets", batch.LastRequests[1].PullRequestOptionsFor(entities.ProviderGitLab).Title)

		var results []map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &results))
		require.Len(t, results, 2)
		assert.Equal(t, "ADDED", results[0]["status"])
		assert.Equal(t, "PR_ERROR", results[1]["status"])
	})

	t.Run("should default to a real run", func(t *testing.T) {
		t.Parallel()

		// given
		batch := &commanddoubles.StubBatchCommand{}
		router := newTestRouter(batch, &commanddoubles.StubDiscoveryCommand{})

		// when
		recorder := serve(router, http.MethodPost, "/imports",
			`[{"approvalTool": "GIT", "repository": {"url": "https://github.com/acme/widgets"}}]`)

		// then
		assert.Equal(t, http.StatusAccepted, recorder.Code)
		assert.False(t, batch.LastDryRun)
	})

	t.Run("should reject a malformed body without running the batch", func(t *testing.T) {
		t.Parallel()

		// given
		batch := &commanddoubles.StubBatchCommand{}
		router := newTestRouter(batch, &commanddoubles.StubDiscoveryCommand{})

		// when
		recorder := serve(router, http.MethodPost, "/imports", `{"repository": "not a list"}`)

		// then
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Zero(t, batch.ExecuteCallCount)
	})

	t.Run("should reject an invalid dryRun flag", func(t *testing.T) {
		t.Parallel()

		// given
		batch := &commanddoubles.StubBatchCommand{}
		router := newTestRouter(batch, &commanddoubles.StubDiscoveryCommand{})

		// when
		recorder := serve(router, http.MethodPost, "/imports?dryRun=maybe", `[]`)

		// then
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Zero(t, batch.ExecuteCallCount)
	})

	t.Run("should answer 400 for a batch the command rejects", func(t *testing.T) {
		t.Parallel()

		// given
		batch := &commanddoubles.StubBatchCommand{
			ExecuteErr: fmt.Errorf("%w: item 0 has no repository.url", entities.ErrInvalidImportRequest),
		}
		router := newTestRouter(batch, &commanddoubles.StubDiscoveryCommand{})

		// when
		recorder := serve(router, http.MethodPost, "/imports", `[{"approvalTool": "GITHUB"}]`)

		// then
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "no repository.url")
	})

	t.Run("should answer 400 for an empty batch", func(t *testing.T) {
		t.Parallel()

		// given
		batch := &commanddoubles.StubBatchCommand{ExecuteErr: entities.ErrEmptyBatch}
		router := newTestRouter(batch, &commanddoubles.StubDiscoveryCommand{})

		// when
		recorder := serve(router, http.MethodPost, "/imports", `[]`)

		// then
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("should answer 500 when the batch cannot start", func(t *testing.T) {
		t.Parallel()

		// given
		batch := &commanddoubles.StubBatchCommand{ExecuteErr: errors.New("failed to initialize catalog client")}
		router := newTestRouter(batch, &commanddoubles.StubDiscoveryCommand{})

		// when
		recorder := serve(router, http.MethodPost, "/imports",
			`[{"approvalTool": "GITHUB", "repository": {"url": "https://github.com/acme/widgets"}}]`)

		// then
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.JSONEq(t, `{"errors": ["failed to initialize catalog client"]}`, recorder.Body.String())
	})
}

func TestRouterPing(t *testing.T) {
	t.Parallel()

	// given
	router := newTestRouter(&commanddoubles.StubBatchCommand{}, &commanddoubles.StubDiscoveryCommand{})

	// when
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-42")
	router.ServeHTTP(recorder, req)

	// then
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "req-42", recorder.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"status": "ok"}`, recorder.Body.String())
}
