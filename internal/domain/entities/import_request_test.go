//go:build unit

package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

func TestApprovalToolProviderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tool     entities.ApprovalTool
		provider string
		ok       bool
	}{
		{tool: "GIT", provider: entities.ProviderGitHub, ok: true},
		{tool: "github", provider: entities.ProviderGitHub, ok: true},
		{tool: " GITLAB ", provider: entities.ProviderGitLab, ok: true},
		{tool: "SVN", ok: false},
		{tool: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.tool), func(t *testing.T) {
			t.Parallel()

			// when
			provider, ok := tt.tool.ProviderName()

			// then
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.provider, provider)
		})
	}
}

func TestValidateBatch(t *testing.T) {
	t.Parallel()

	t.Run("should reject an empty batch", func(t *testing.T) {
		t.Parallel()

		// when
		err := entities.ValidateBatch(nil)

		// then
		require.ErrorIs(t, err, entities.ErrEmptyBatch)
	})

	t.Run("should reject an item without a repository URL", func(t *testing.T) {
		t.Parallel()

		// given
		requests := []entities.ImportRequest{
			{ApprovalTool: entities.ApprovalToolGitHub, Repository: entities.RepositoryInput{URL: "https://github.com/a/b"}},
			{ApprovalTool: entities.ApprovalToolGitHub},
		}

		// when
		err := entities.ValidateBatch(requests)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidImportRequest)
		assert.Contains(t, err.Error(), "item 1")
	})

	t.Run("should accept an unknown approval tool", func(t *testing.T) {
		t.Parallel()

		// given
		requests := []entities.ImportRequest{
			{ApprovalTool: "SVN", Repository: entities.RepositoryInput{URL: "https://svn.example.com/a/b"}},
		}

		// when
		err := entities.ValidateBatch(requests)

		// then
		require.NoError(t, err)
	})
}

func TestImportStatus(t *testing.T) {
	t.Parallel()

	t.Run("should file the change request under its provider", func(t *testing.T) {
		t.Parallel()

		// given
		status := entities.NewImportStatus(entities.ImportRequest{ApprovalTool: entities.ApprovalToolGitLab})

		// when
		status.SetChangeRequest(entities.ProviderGitLab, entities.PullRequest{Number: 3, URL: "https://gitlab.com/mr/3"})

		// then
		require.NotNil(t, status.GitLab)
		assert.Nil(t, status.GitHub)
		assert.Equal(t, 3, status.GitLab.PullRequest.Number)
	})

	t.Run("should echo only the URL of the requested repository", func(t *testing.T) {
		t.Parallel()

		// given
		req := entities.ImportRequest{
			ApprovalTool: entities.ApprovalToolGitHub,
			Repository:   entities.RepositoryInput{URL: "https://github.com/acme/widgets", DefaultBranch: "develop"},
		}

		// when
		status := entities.NewImportStatus(req)

		// then
		assert.Equal(t, "https://github.com/acme/widgets", status.Repository.URL)
		assert.Empty(t, status.Repository.DefaultBranch)
		assert.Empty(t, status.Repository.Name)
	})

	t.Run("should store lastUpdate in UTC and skip unknown times", func(t *testing.T) {
		t.Parallel()

		// given
		status := entities.NewImportStatus(entities.ImportRequest{})
		local := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

		// when
		status.Touch(time.Time{})
		unset := status.LastUpdate
		status.Touch(local)

		// then
		assert.Nil(t, unset)
		require.NotNil(t, status.LastUpdate)
		assert.Equal(t, time.UTC, status.LastUpdate.Location())
		assert.True(t, local.Equal(*status.LastUpdate))
	})

	t.Run("should mark the item failed with the messages", func(t *testing.T) {
		t.Parallel()

		// given
		status := entities.NewImportStatus(entities.ImportRequest{})

		// when
		status.Fail("boom")

		// then
		assert.Equal(t, entities.StatusPRError, status.Status)
		assert.Equal(t, []string{"boom"}, status.Errors)
	})
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("should use the backend message as-is", func(t *testing.T) {
		t.Parallel()

		// given
		err := entities.NewBackendError(entities.ProviderGitHub, 422, "unable to create PR due to a server error")

		// when
		message := entities.ErrorMessage(err)

		// then
		assert.Equal(t, "unable to create PR due to a server error", message)
	})

	t.Run("should never leave the message empty", func(t *testing.T) {
		t.Parallel()

		// given
		err := entities.NewBackendError("catalog", 503, "")

		// when
		message := entities.ErrorMessage(err)

		// then
		assert.Equal(t, "unexpected status 503 from catalog", message)
	})
}
