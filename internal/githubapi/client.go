package githubapi

import (
	"fmt"
	"runtime"

	"github.com/imroc/req/v3"
	"github.com/openvault/vaultsync/internal/version"
)

const (
	defaultBaseURL = "https://api.github.com"

	HeaderAccept     = "Accept"
	HeaderAPIVersion = "X-GitHub-Api-Version"

	acceptJSON = "application/vnd.github+json"
	apiVersion = "2022-11-28"
)

var userAgent = fmt.Sprintf("VaultSync/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// Client is the GitHub REST client used as the remote store transport.
type Client struct {
	client  *req.Client
	baseURL string
	Repo    *RepoAPI
}

// New creates a new GitHub API client. Retries are intentionally disabled;
// the caller re-triggers failed operations. Caching is disabled so every
// snapshot reflects the true branch tip.
func New(token string) *Client {
	client := req.C().
		SetBaseURL(defaultBaseURL).
		SetUserAgent(userAgent).
		SetCommonHeader(HeaderAccept, acceptJSON).
		SetCommonHeader(HeaderAPIVersion, apiVersion).
		SetCommonHeader("Cache-Control", "no-cache").
		SetCommonRetryCount(0)

	if token != "" {
		client.SetCommonBearerAuthToken(token)
	}

	return &Client{
		client:  client,
		baseURL: defaultBaseURL,
		Repo:    newRepoAPI(client),
	}
}

// SetBaseURL overrides the API endpoint (GitHub Enterprise, test servers).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
	c.client.SetBaseURL(url)
}
