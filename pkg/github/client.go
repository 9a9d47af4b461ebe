// Package github publishes packaged installers as GitHub release assets.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

// uploadTimeout bounds a whole request. Installers with a bundled runtime
// run to hundreds of megabytes.
const uploadTimeout = 15 * time.Minute

// NotFoundError is returned by MockClient for a missing release and is
// recognized by IsNotFound.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// IsNotFound reports whether err is a GitHub 404 or a *NotFoundError.
func IsNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
	}
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// ClientInterface is the subset of the GitHub API the release step uses.
type ClientInterface interface {
	GetRelease(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, error)
	CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, error)
	UploadReleaseAsset(ctx context.Context, owner, repo string, releaseID int64, assetPath, contentType string) (*github.ReleaseAsset, error)
}

var _ ClientInterface = (*Client)(nil)

// Client talks to github.com or a GitHub Enterprise server.
type Client struct {
	client *github.Client
}

// Endpoint selects a GitHub Enterprise server. The zero value means
// github.com. An empty UploadURL reuses APIURL.
type Endpoint struct {
	APIURL    string
	UploadURL string
}

// NewClient creates a client authenticated with token.
func NewClient(token string, endpoint Endpoint) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required — set release.github.token or GITHUB_TOKEN")
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	httpClient.Timeout = uploadTimeout

	if endpoint.APIURL == "" {
		return &Client{client: github.NewClient(httpClient)}, nil
	}

	uploadURL := endpoint.UploadURL
	if uploadURL == "" {
		uploadURL = endpoint.APIURL
	}
	client, err := github.NewEnterpriseClient(endpoint.APIURL, uploadURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub Enterprise URL: %w", err)
	}
	return &Client{client: client}, nil
}

// GetGitHubToken reads the token from GITHUB_TOKEN.
func GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// GetRelease fetches the release for tag.
func (c *Client) GetRelease(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, error) {
	release, _, err := c.client.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to get release %s/%s@%s: %w", owner, repo, tag, err)
	}
	return release, nil
}

// CreateRelease creates release in owner/repo.
func (c *Client) CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, error) {
	created, _, err := c.client.Repositories.CreateRelease(ctx, owner, repo, release)
	if err != nil {
		return nil, fmt.Errorf("failed to create release %s/%s: %w", owner, repo, err)
	}
	return created, nil
}

// UploadReleaseAsset uploads assetPath under its base name. Symlinks and
// anything but regular files are refused.
func (c *Client) UploadReleaseAsset(ctx context.Context, owner, repo string, releaseID int64, assetPath, contentType string) (*github.ReleaseAsset, error) {
	file, err := openAsset(assetPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(assetPath)
	asset, _, err := c.client.Repositories.UploadReleaseAsset(ctx, owner, repo, releaseID, &github.UploadOptions{Name: name}, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to release %d: %w", name, releaseID, err)
	}
	return asset, nil
}

func openAsset(path string) (*os.File, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access asset file: %w", err)
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return nil, fmt.Errorf("asset %s is a symbolic link", path)
	case !info.Mode().IsRegular():
		return nil, fmt.Errorf("asset %s is not a regular file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset file: %w", err)
	}
	return file, nil
}
