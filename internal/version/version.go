package version

// Version is set at build time via -ldflags "-X github.com/PatrickWalther/unfollow-watch-go/internal/version.Version=..."
var Version = "dev"

// RepoURL is the GitHub repository URL
const RepoURL = "https://github.com/PatrickWalther/unfollow-watch-go"

// UserAgent identifies the client to the GitHub API.
func UserAgent() string {
	return "unfollow-watch/" + Version
}
