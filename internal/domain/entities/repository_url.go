package entities

import (
	"fmt"
	"net/url"
	"strings"
)

// RepositoryLocation is the identity of a repository parsed out of its URL.
type RepositoryLocation struct {
	Host         string
	Organization string
	Name         string
}

// ParseRepositoryURL extracts host, organization and repository name from an
// HTTPS or SSH repository URL. With allowNested the organization keeps every
// namespace segment (GitLab subgroups); otherwise only the first two path
// segments are significant (GitHub "owner/repo", anything after is ignored).
func ParseRepositoryURL(rawURL string, allowNested bool) (RepositoryLocation, error) {
	cleaned := strings.TrimSpace(rawURL)
	if cleaned == "" {
		return RepositoryLocation{}, fmt.Errorf("%w: empty URL", ErrInvalidRepositoryURL)
	}

	host, pathPart, err := splitHostAndPath(cleaned)
	if err != nil {
		return RepositoryLocation{}, err
	}

	// GitLab web URLs carry the route separator "/-/" before tree/blob suffixes
	if before, _, found := strings.Cut(pathPart, "/-/"); found {
		pathPart = before
	}
	pathPart = strings.TrimSuffix(strings.Trim(pathPart, "/"), ".git")

	segments := strings.Split(pathPart, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" { //nolint:mnd // need org + repo
		return RepositoryLocation{}, fmt.Errorf(
			"%w: cannot extract organization and name from %q", ErrInvalidRepositoryURL, rawURL,
		)
	}

	if !allowNested {
		return RepositoryLocation{
			Host:         host,
			Organization: segments[0],
			Name:         strings.TrimSuffix(segments[1], ".git"),
		}, nil
	}

	last := len(segments) - 1
	return RepositoryLocation{
		Host:         host,
		Organization: strings.Join(segments[:last], "/"),
		Name:         segments[last],
	}, nil
}

func splitHostAndPath(cleaned string) (string, string, error) {
	if strings.HasPrefix(cleaned, "git@") {
		hostPart, pathPart, ok := strings.Cut(strings.TrimPrefix(cleaned, "git@"), ":")
		if !ok {
			return "", "", fmt.Errorf("%w: invalid SSH URL %q", ErrInvalidRepositoryURL, cleaned)
		}
		return strings.ToLower(hostPart), pathPart, nil
	}

	if !strings.Contains(cleaned, "://") {
		cleaned = "https://" + cleaned
	}
	parsed, err := url.Parse(cleaned)
	if err != nil || parsed.Host == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepositoryURL, cleaned)
	}
	return strings.ToLower(parsed.Hostname()), parsed.Path, nil
}

// HostOf returns the lower-cased host of a URL, or an empty string.
func HostOf(rawURL string) string {
	host, _, err := splitHostAndPath(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return host
}
