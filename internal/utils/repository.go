package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/appstore-dev/appstore/pkg/models"
)

var commitRef = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// RepoInfo identifies a source repository on a git forge.
type RepoInfo struct {
	Host  string
	Owner string
	Repo  string
	Ref   string
}

// ParseRepositoryURL parses an https or scp-style ssh repository URL.
func ParseRepositoryURL(rawURL, ref string) (*RepoInfo, error) {
	rawURL = strings.TrimSpace(rawURL)
	var host, path string
	if strings.HasPrefix(rawURL, "git@") && strings.Contains(rawURL, ":") {
		rest := strings.TrimPrefix(rawURL, "git@")
		host, path, _ = strings.Cut(rest, ":")
	} else {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if parsed.Scheme != "https" && parsed.Scheme != "http" || parsed.Host == "" {
			return nil, fmt.Errorf("not a repository URL: %s", rawURL)
		}
		host, path = parsed.Host, parsed.Path
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if host == "" || len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid repository URL path: %s", rawURL)
	}

	return &RepoInfo{
		Host:  strings.ToLower(host),
		Owner: parts[0],
		Repo:  parts[1],
		Ref:   strings.TrimSpace(ref),
	}, nil
}

// WebURL returns the repository home page.
func (info *RepoInfo) WebURL() string {
	return fmt.Sprintf("https://%s/%s/%s", info.Host, info.Owner, info.Repo)
}

// RefURL returns the page of the repository at Ref, or WebURL when Ref is
// empty. GitHub uses /tree/<ref>; Gitea-style forges distinguish commits from
// branches.
func (info *RepoInfo) RefURL() string {
	if info.Ref == "" {
		return info.WebURL()
	}
	if info.Host == "github.com" {
		return info.WebURL() + "/tree/" + info.Ref
	}
	if commitRef.MatchString(info.Ref) {
		return info.WebURL() + "/src/commit/" + info.Ref
	}
	return info.WebURL() + "/src/branch/" + info.Ref
}

// RepositoryLink renders an application's repository for display: a link at
// the recorded ref when the URL parses, the raw value otherwise.
func RepositoryLink(app *models.Application) string {
	if app.Repository == nil || *app.Repository == "" {
		return models.NotAvailable
	}
	ref := ""
	if app.RepositoryRef != nil {
		ref = *app.RepositoryRef
	}
	info, err := ParseRepositoryURL(*app.Repository, ref)
	if err != nil {
		return *app.Repository
	}
	return info.RefURL()
}
