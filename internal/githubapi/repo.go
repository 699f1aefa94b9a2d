package githubapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/imroc/req/v3"
)

// RepoAPI exposes the repository content operations the sync engine needs.
type RepoAPI struct {
	client *req.Client
}

func newRepoAPI(client *req.Client) *RepoAPI {
	return &RepoAPI{
		client: client,
	}
}

func branchURL(owner, repo, branch string) string {
	return fmt.Sprintf("/repos/%s/%s/branches/%s", url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))
}

func treeURL(owner, repo, sha string) string {
	return fmt.Sprintf("/repos/%s/%s/git/trees/%s", url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(sha))
}

// contentsURL escapes each path segment individually, keeping the
// separators intact.
func contentsURL(owner, repo, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(owner), url.PathEscape(repo), strings.Join(segments, "/"))
}

// GetBranchTip returns the commit sha at the tip of a branch.
func (r *RepoAPI) GetBranchTip(ctx context.Context, owner, repo, branch string) (string, error) {
	var result BranchResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetSuccessResult(&result).
		SetErrorResult(&APIError{}).
		Get(branchURL(owner, repo, branch))

	if err := handleAPIError(resp, err, "branch tip"); err != nil {
		return "", err
	}
	return result.Commit.SHA, nil
}

// GetTree lists every object reachable from a commit, recursively.
func (r *RepoAPI) GetTree(ctx context.Context, owner, repo, commitSHA string) ([]TreeEntry, error) {
	var result TreeResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("recursive", "1").
		SetSuccessResult(&result).
		SetErrorResult(&APIError{}).
		Get(treeURL(owner, repo, commitSHA))

	if err := handleAPIError(resp, err, "tree"); err != nil {
		return nil, err
	}
	if result.Truncated {
		return nil, fmt.Errorf("tree: listing truncated for %s/%s@%s", owner, repo, commitSHA)
	}
	return result.Tree, nil
}

// GetFileContent fetches a file's bytes at a ref via the contents endpoint.
func (r *RepoAPI) GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	var result ContentsResponse
	request := r.client.R().
		SetContext(ctx).
		SetSuccessResult(&result).
		SetErrorResult(&APIError{})
	if ref != "" {
		request.SetQueryParam("ref", ref)
	}
	resp, err := request.Get(contentsURL(owner, repo, path))

	if err := handleAPIError(resp, err, "file content"); err != nil {
		return nil, err
	}
	if result.Encoding != "base64" {
		return nil, fmt.Errorf("file content: unexpected encoding %q for %s", result.Encoding, path)
	}

	// the API wraps base64 payloads with newlines
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(result.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("file content: decode %s: %w", path, err)
	}
	return data, nil
}

// CreateOrUpdateFile writes a file on a branch. params.SHA carries the
// expected sha of the object being replaced; leave it empty for new files.
// Returns the new blob sha.
func (r *RepoAPI) CreateOrUpdateFile(ctx context.Context, owner, repo, path string, params *PutContentsParams) (string, error) {
	var result PutContentsResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&result).
		SetErrorResult(&APIError{}).
		Put(contentsURL(owner, repo, path))

	if err := handleAPIError(resp, err, "put contents"); err != nil {
		return "", err
	}
	if result.Content == nil {
		return "", fmt.Errorf("put contents: no content in response for %s", path)
	}
	return result.Content.SHA, nil
}

// DeleteFile removes a file from a branch. params.SHA is the expected sha
// and is mandatory; the API rejects the delete if the object changed.
func (r *RepoAPI) DeleteFile(ctx context.Context, owner, repo, path string, params *DeleteContentsParams) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(params).
		SetErrorResult(&APIError{}).
		Delete(contentsURL(owner, repo, path))

	return handleAPIError(resp, err, "delete contents")
}

// EncodeContent base64-encodes raw bytes for a contents write.
func EncodeContent(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
