package gh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultAPI is the public GitHub REST endpoint
	DefaultAPI = "https://api.github.com"

	DefaultTimeout   = 30 * time.Second
	DefaultPerPage   = 100
	DefaultUserAgent = "altsync"
)

// ErrNetwork is matched by every *NetworkError
var ErrNetwork = errors.New("release API request failed")

// ErrInvalidRepository is returned for repository identifiers not in owner/name form
var ErrInvalidRepository = errors.New("repository must be in owner/name form")

var repoSlugRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// NetworkError describes a failed call to the release API.
// Status is zero when the request never got a response.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("GET %s: status %d: %v", e.URL, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("GET %s: GitHub API returned status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Asset is a downloadable file attached to a release
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release represents a GitHub release
type Release struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Assets      []Asset   `json:"assets"`
}

// Client lists releases through the GitHub REST API
type Client struct {
	baseURL    string
	userAgent  string
	perPage    int
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests)
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client. The client is copied,
// so the caller's value is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request made by the client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// NewClient creates a new GitHub client
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultAPI,
		userAgent:  DefaultUserAgent,
		perPage:    DefaultPerPage,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc
	return c
}

// ValidateRepository checks that repo looks like owner/name
func ValidateRepository(repo string) error {
	if !repoSlugRegex.MatchString(repo) {
		return fmt.Errorf("%w: %q", ErrInvalidRepository, repo)
	}
	return nil
}

// ListReleases fetches the release list of repo. Drafts are only visible to
// authenticated callers, so in practice the list holds published releases.
func (c *Client) ListReleases(ctx context.Context, repo string) ([]Release, error) {
	if err := ValidateRepository(repo); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", c.baseURL, repo, c.perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: url, Status: resp.StatusCode}
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, &NetworkError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode release data: %w", err)}
	}

	return releases, nil
}
