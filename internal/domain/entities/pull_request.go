package entities

import "time"

// PullRequest is a GitHub pull request or a GitLab merge request.
type PullRequest struct {
	Number       int
	Title        string
	URL          string
	SourceBranch string
	UpdatedAt    time.Time
}

// ChangeRequestInput describes the metadata-file change to propose.
type ChangeRequestInput struct {
	Branch        string
	BaseBranch    string
	Path          string
	Content       string
	Title         string
	Body          string
	CommitMessage string
	// Existing, when set, is the open change request to update instead of opening a new one.
	Existing *PullRequest
}
