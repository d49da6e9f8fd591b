package entities

import "time"

// Repository is a repository as reported by its provider.
type Repository struct {
	Name          string    `json:"name"`
	Organization  string    `json:"organization"`
	URL           string    `json:"url"`
	DefaultBranch string    `json:"defaultBranch"`
	UpdatedAt     time.Time `json:"lastUpdate"`
	ProviderName  string    `json:"approvalTool"`
}

// FullName is the "organization/name" slug of the repository.
func (r Repository) FullName() string {
	return r.Organization + "/" + r.Name
}

// Ref converts the repository into the shape echoed back in import results.
func (r Repository) Ref() RepositoryRef {
	return RepositoryRef{
		Name:          r.Name,
		Organization:  r.Organization,
		URL:           r.URL,
		DefaultBranch: r.DefaultBranch,
	}
}

// Organization is a GitHub organization or a GitLab group.
type Organization struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	Description  string `json:"description,omitempty"`
	ProviderName string `json:"approvalTool"`
}

// Branch is the head of a branch.
type Branch struct {
	Name        string
	SHA         string
	CommittedAt time.Time
}

// ListOptions are the discovery listing parameters.
type ListOptions struct {
	Search  string
	Page    int
	PerPage int
}

// Page is a single page of a discovery listing.
type Page[T any] struct {
	Items    []T
	NextPage int
}
