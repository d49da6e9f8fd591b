//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

func TestParseRepositoryURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rawURL      string
		allowNested bool
		want        entities.RepositoryLocation
	}{
		{
			name:   "should parse an HTTPS GitHub URL",
			rawURL: "https://github.com/acme/widgets",
			want:   entities.RepositoryLocation{Host: "github.com", Organization: "acme", Name: "widgets"},
		},
		{
			name:   "should ignore the .git suffix and trailing path segments",
			rawURL: "https://GitHub.com/acme/widgets.git/tree/main",
			want:   entities.RepositoryLocation{Host: "github.com", Organization: "acme", Name: "widgets"},
		},
		{
			name:   "should parse an SSH URL",
			rawURL: "git@github.com:acme/widgets.git",
			want:   entities.RepositoryLocation{Host: "github.com", Organization: "acme", Name: "widgets"},
		},
		{
			name:   "should accept a URL without scheme",
			rawURL: "github.com/acme/widgets",
			want:   entities.RepositoryLocation{Host: "github.com", Organization: "acme", Name: "widgets"},
		},
		{
			name:        "should keep every GitLab subgroup in the organization",
			rawURL:      "https://gitlab.com/acme/platform/widgets",
			allowNested: true,
			want:        entities.RepositoryLocation{Host: "gitlab.com", Organization: "acme/platform", Name: "widgets"},
		},
		{
			name:        "should cut GitLab web routes",
			rawURL:      "https://gitlab.com/acme/platform/widgets/-/blob/main/catalog-info.yaml",
			allowNested: true,
			want:        entities.RepositoryLocation{Host: "gitlab.com", Organization: "acme/platform", Name: "widgets"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			got, err := entities.ParseRepositoryURL(tt.rawURL, tt.allowNested)

			// then
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("should reject a URL without a repository name", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.ParseRepositoryURL("https://github.com/acme", false)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidRepositoryURL)
	})

	t.Run("should reject an empty URL", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.ParseRepositoryURL("  ", false)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidRepositoryURL)
	})
}

func TestHostOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gitlab.example.com", entities.HostOf("https://GitLab.example.com:8443/api/v4"))
	assert.Equal(t, "github.com", entities.HostOf("git@github.com:acme/widgets.git"))
	assert.Empty(t, entities.HostOf("https://"))
}
