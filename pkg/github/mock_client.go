package github

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/go-github/github"
)

var _ ClientInterface = (*MockClient)(nil)

// MockClient is an in-memory ClientInterface for tests. Releases are keyed
// by "owner/repo".
type MockClient struct {
	Releases       map[string][]*github.RepositoryRelease
	UploadedAssets []string // asset paths passed to UploadReleaseAsset, in order
	ContentTypes   map[string]string
	ErrorToReturn  error
	UploadError    error // if non-nil, returned by UploadReleaseAsset instead of ErrorToReturn
	CreateError    error // if non-nil, returned by CreateRelease instead of ErrorToReturn
}

// NewMockClient creates a new mock GitHub client
func NewMockClient() *MockClient {
	return &MockClient{
		Releases:     make(map[string][]*github.RepositoryRelease),
		ContentTypes: make(map[string]string),
	}
}

// GetRelease returns the release tagged tag, or a *NotFoundError
func (m *MockClient) GetRelease(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}

	key := owner + "/" + repo
	for _, release := range m.Releases[key] {
		if release.GetTagName() == tag {
			return release, nil
		}
	}
	return nil, &NotFoundError{Message: fmt.Sprintf("release %s not found in %s", tag, key)}
}

// CreateRelease stores release with a synthetic ID and URL
func (m *MockClient) CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, error) {
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}

	key := owner + "/" + repo
	id := int64(len(m.Releases[key]) + 1)
	release.ID = &id
	release.HTMLURL = github.String(fmt.Sprintf("https://github.com/%s/releases/tag/%s", key, release.GetTagName()))

	m.Releases[key] = append(m.Releases[key], release)
	return release, nil
}

// UploadReleaseAsset records the upload
func (m *MockClient) UploadReleaseAsset(ctx context.Context, owner, repo string, releaseID int64, assetPath, contentType string) (*github.ReleaseAsset, error) {
	if m.UploadError != nil {
		return nil, m.UploadError
	}
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}

	m.UploadedAssets = append(m.UploadedAssets, assetPath)
	m.ContentTypes[filepath.Base(assetPath)] = contentType

	return &github.ReleaseAsset{Name: github.String(filepath.Base(assetPath))}, nil
}

// AddRelease adds a release to mock data
func (m *MockClient) AddRelease(owner, repo string, release *github.RepositoryRelease) {
	key := owner + "/" + repo
	m.Releases[key] = append(m.Releases[key], release)
}
