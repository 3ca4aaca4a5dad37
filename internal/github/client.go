package github

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/torfstack/jumble/internal/config"
	"github.com/torfstack/jumble/internal/logging"
	"golang.org/x/oauth2"
)

const (
	TypeFile = "file"
	TypeDir  = "dir"
)

var (
	apiBaseURL = "https://api.github.com"
)

// Entry is one item of a contents listing.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Sha         string `json:"sha"`
	DownloadURL string `json:"download_url"`
}

// ListingError is returned when the contents API answers with a non-success
// status. It aborts the whole run.
type ListingError struct {
	StatusCode int
	Body       string
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("could not fetch directory listing: %d - %s", e.StatusCode, e.Body)
}

// BlobCache is the subset of the download cache the client needs. A nil
// cache disables caching, every file is downloaded directly.
type BlobCache interface {
	Get(ctx context.Context, sha string) ([]byte, bool, error)
	Put(ctx context.Context, sha string, content []byte) error
}

type Client struct {
	baseURL string
	http    *http.Client
	owner   string
	repo    string
	cache   BlobCache
}

func NewClient(ctx context.Context, cfg config.Config, cache BlobCache) *Client {
	httpClient := http.DefaultClient
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, src)
	}
	return &Client{
		baseURL: apiBaseURL,
		http:    httpClient,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		cache:   cache,
	}
}

// List fetches the contents listing at the given path. The API returns a
// single object instead of an array when the path names a file directly,
// that case is wrapped into a one-element slice.
func (c *Client) List(ctx context.Context, path string) ([]Entry, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)
	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &ListingError{StatusCode: status, Body: string(body)}
	}
	return decodeListing(body, path)
}

// Download fetches the raw content of a single file.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", status)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("could not create request for '%s': %w", url, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func(body io.ReadCloser) {
		if errClose := body.Close(); errClose != nil {
			logging.Debugf("Could not close body: %s", errClose)
		}
	}(res.Body)

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("could not read response body from '%s': %w", url, err)
	}
	return body, res.StatusCode, nil
}
