package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/eveview/eveview/internal/eveview/logger"
)

// Version is the backend server version as reported by the root endpoint.
type Version struct {
	Number string
	Major  int64
}

// ParseVersion parses a dotted version string such as "7.10.2".
func ParseVersion(number string) (Version, error) {
	parts := strings.SplitN(number, ".", 2)
	major, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("bad version string %q: %w", number, err)
	}
	return Version{Number: number, Major: major}, nil
}

// Client is a cheap handle over a shared HTTP connection pool, plus a
// lazily cached copy of the server's version. The cache is owned by the
// client instance and refreshed on demand, never process global.
type Client struct {
	url      string
	username string
	password string
	http     *http.Client

	mu      sync.Mutex
	version *Version
}

// NewClient returns a client for the server at url.
func NewClient(url string) *Client {
	return &Client{
		url:  strings.TrimSuffix(url, "/"),
		http: &http.Client{},
	}
}

// WithBasicAuth sets credentials sent with every request.
func (c *Client) WithBasicAuth(username, password string) *Client {
	c.username = username
	c.password = password
	return c
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.http.Do(req)
}

// Get issues a GET to the given path relative to the server URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/"+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// Post issues a POST of the JSON encoding of body to the given path.
func (c *Client) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/"+path,
		bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// PostRaw issues a POST of a preassembled body, used for bulk requests
// which are newline delimited rather than a single JSON document.
func (c *Client) PostRaw(ctx context.Context, path string, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/"+path,
		bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.http.Do(req)
}

// GetVersion returns the server's version, fetching and caching it on
// first use.
func (c *Client) GetVersion(ctx context.Context) (Version, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != nil {
		return *c.version, nil
	}

	response, err := c.Get(ctx, "")
	if err != nil {
		return Version{}, err
	}
	defer response.Body.Close()

	var info struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.NewDecoder(response.Body).Decode(&info); err != nil {
		return Version{}, fmt.Errorf("failed to decode server info: %w", err)
	}
	version, err := ParseVersion(info.Version.Number)
	if err != nil {
		return Version{}, err
	}
	logger.L().Debugw("Fetched Elasticsearch version", "version", version.Number)
	c.version = &version
	return version, nil
}
