package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/openvault/vaultsync/internal/githubapi"
)

// fakeRemote is an in-memory RemoteAPI with git-blob hashing and the same
// sha preconditions the real contents endpoint enforces.
type fakeRemote struct {
	mu    sync.Mutex
	files map[string][]byte

	// recorded preconditions, keyed by path, in call order
	putSHAs    map[string]string
	deleteSHAs map[string]string
	putOrder   []string

	// error injection
	failPut    map[string]error
	failDelete map[string]error
	failGet    map[string]error
	tipErr     error
	treeErr    error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:      make(map[string][]byte),
		putSHAs:    make(map[string]string),
		deleteSHAs: make(map[string]string),
		failPut:    make(map[string]error),
		failDelete: make(map[string]error),
		failGet:    make(map[string]error),
	}
}

func (f *fakeRemote) seed(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = []byte(content)
}

func (f *fakeRemote) hashOf(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return ""
	}
	return HashContent(data)
}

func (f *fakeRemote) GetBranchTip(_ context.Context, _, _, _ string) (string, error) {
	if f.tipErr != nil {
		return "", f.tipErr
	}
	return "tip-sha", nil
}

func (f *fakeRemote) GetTree(_ context.Context, _, _, _ string) ([]githubapi.TreeEntry, error) {
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := make([]githubapi.TreeEntry, 0, len(f.files))
	for path, data := range f.files {
		entries = append(entries, githubapi.TreeEntry{
			Path: path,
			Mode: "100644",
			Type: "blob",
			SHA:  HashContent(data),
			Size: int64(len(data)),
		})
	}
	return entries, nil
}

func (f *fakeRemote) GetFileContent(_ context.Context, _, _, path, _ string) ([]byte, error) {
	if err := f.failGet[path]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.files[path]
	if !ok {
		return nil, githubapi.ErrNotFound
	}
	return data, nil
}

func (f *fakeRemote) CreateOrUpdateFile(_ context.Context, _, _, path string, params *githubapi.PutContentsParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.putSHAs[path] = params.SHA
	f.putOrder = append(f.putOrder, path)

	if err := f.failPut[path]; err != nil {
		return "", err
	}

	if existing, ok := f.files[path]; ok {
		if params.SHA != HashContent(existing) {
			return "", githubapi.ErrPreconditionFailed
		}
	} else if params.SHA != "" {
		return "", githubapi.ErrPreconditionFailed
	}

	data, err := base64.StdEncoding.DecodeString(params.Content)
	if err != nil {
		return "", fmt.Errorf("fake remote: bad content encoding: %w", err)
	}
	f.files[path] = data
	return HashContent(data), nil
}

func (f *fakeRemote) DeleteFile(_ context.Context, _, _, path string, params *githubapi.DeleteContentsParams) error {
	if err := f.failDelete[path]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteSHAs[path] = params.SHA
	existing, ok := f.files[path]
	if !ok {
		return githubapi.ErrNotFound
	}
	if params.SHA != HashContent(existing) {
		return githubapi.ErrPreconditionFailed
	}
	delete(f.files, path)
	return nil
}
