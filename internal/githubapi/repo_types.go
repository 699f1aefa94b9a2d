package githubapi

// BranchResponse is the subset of the branches endpoint we consume.
type BranchResponse struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// TreeEntry is a single object in a git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"` // "blob" or "tree"
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

// TreeResponse is a recursive git tree listing.
type TreeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// ContentsResponse is the contents endpoint payload for a file.
type ContentsResponse struct {
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"` // base64, possibly with embedded newlines
	Encoding string `json:"encoding"`
}

// PutContentsParams are the parameters for creating or updating a file.
type PutContentsParams struct {
	Message string `json:"message"`
	Content string `json:"content"` // base64
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"` // expected sha of the file being replaced
}

// PutContentsResponse is the payload returned by a contents write.
type PutContentsResponse struct {
	Content *struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
		Size int64  `json:"size"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// DeleteContentsParams are the parameters for deleting a file.
type DeleteContentsParams struct {
	Message string `json:"message"`
	SHA     string `json:"sha"` // expected sha, required by the API
	Branch  string `json:"branch,omitempty"`
}
