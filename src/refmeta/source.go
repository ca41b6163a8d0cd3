package refmeta

import (
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// SourceURL determines the repository URL for the OCI source label.
// CI environment variables win; otherwise the origin remote is used.
// Returns "" when neither is available — the label is then omitted.
func SourceURL(rootDir string) string {
	if u := os.Getenv("CI_PROJECT_URL"); u != "" {
		return u
	}
	if server, repo := os.Getenv("GITHUB_SERVER_URL"), os.Getenv("GITHUB_REPOSITORY"); server != "" && repo != "" {
		return server + "/" + repo
	}

	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	remote, err := repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}
	return normalizeRemote(remote.Config().URLs[0])
}

// normalizeRemote converts scp-style git URLs to https form and strips the
// .git suffix: git@host:org/repo.git → https://host/org/repo.
func normalizeRemote(u string) string {
	u = strings.TrimSuffix(u, ".git")
	if strings.HasPrefix(u, "git@") {
		u = strings.TrimPrefix(u, "git@")
		u = "https://" + strings.Replace(u, ":", "/", 1)
	}
	return u
}
