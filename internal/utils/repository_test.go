package utils_test

import (
	"testing"

	"github.com/appstore-dev/appstore/internal/utils"
	"github.com/appstore-dev/appstore/pkg/models"
)

func TestParseRepositoryURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantHost  string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"https basic", "https://github.com/owner/repo", "github.com", "owner", "repo", false},
		{"https with .git", "https://github.com/owner/repo.git", "github.com", "owner", "repo", false},
		{"https trailing slash", "https://github.com/owner/repo/", "github.com", "owner", "repo", false},
		{"ssh basic", "git@github.com:owner/repo", "github.com", "owner", "repo", false},
		{"ssh with .git", "git@git.vdb.to:cerc-io/snowballtools.git", "git.vdb.to", "cerc-io", "snowballtools", false},
		{"gitea https", "https://git.vdb.to/cerc-io/laconic-registry-cli", "git.vdb.to", "cerc-io", "laconic-registry-cli", false},
		{"invalid no repo", "https://github.com/owner", "", "", "", true},
		{"invalid empty", "", "", "", "", true},
		{"invalid malformed", "not-a-url", "", "", "", true},
		{"invalid scheme", "ftp://github.com/owner/repo", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := utils.ParseRepositoryURL(tt.input, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRepositoryURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}
			if got.Host != tt.wantHost {
				t.Errorf("ParseRepositoryURL(%q).Host = %q, want %q", tt.input, got.Host, tt.wantHost)
			}
			if got.Owner != tt.wantOwner {
				t.Errorf("ParseRepositoryURL(%q).Owner = %q, want %q", tt.input, got.Owner, tt.wantOwner)
			}
			if got.Repo != tt.wantRepo {
				t.Errorf("ParseRepositoryURL(%q).Repo = %q, want %q", tt.input, got.Repo, tt.wantRepo)
			}
		})
	}
}

func TestRepoInfo_RefURL(t *testing.T) {
	tests := []struct {
		name   string
		info   *utils.RepoInfo
		wanted string
	}{
		{"no ref", &utils.RepoInfo{Host: "github.com", Owner: "owner", Repo: "repo"}, "https://github.com/owner/repo"},
		{"github ref", &utils.RepoInfo{Host: "github.com", Owner: "owner", Repo: "repo", Ref: "v1.2.0"}, "https://github.com/owner/repo/tree/v1.2.0"},
		{"gitea commit", &utils.RepoInfo{Host: "git.vdb.to", Owner: "o", Repo: "r", Ref: "4f2a9c1"}, "https://git.vdb.to/o/r/src/commit/4f2a9c1"},
		{"gitea branch", &utils.RepoInfo{Host: "git.vdb.to", Owner: "o", Repo: "r", Ref: "main"}, "https://git.vdb.to/o/r/src/branch/main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.RefURL(); got != tt.wanted {
				t.Errorf("RefURL() = %q, want %q", got, tt.wanted)
			}
		})
	}
}

func TestRepositoryLink(t *testing.T) {
	str := func(s string) *string { return &s }

	if got := utils.RepositoryLink(&models.Application{}); got != models.NotAvailable {
		t.Errorf("missing repository: got %q", got)
	}
	if got := utils.RepositoryLink(&models.Application{Repository: str("not a url")}); got != "not a url" {
		t.Errorf("unparseable repository: got %q", got)
	}
	app := &models.Application{Repository: str("https://github.com/owner/repo"), RepositoryRef: str("abc1234")}
	if got := utils.RepositoryLink(app); got != "https://github.com/owner/repo/tree/abc1234" {
		t.Errorf("repository with ref: got %q", got)
	}
}
