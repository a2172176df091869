package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odvcencio/myvcs/pkg/object"
)

// Response limits per endpoint type.
const (
	responseLimitDefault = 2 << 20  // 2MB
	responseLimitRefs    = 8 << 20  // 8MB
	responseLimitBatch   = 64 << 20 // 64MB
)

// Client is a Transport over another server's /sync endpoints.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
}

// NewClient creates a client for the server at rawURL. Zero-value or
// negative fields in opts receive defaults (60s timeout, 3 attempts).
func NewClient(rawURL string, opts OpenOptions) (*Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: remote URL must include http(s) scheme and host", ErrInvalidRequest)
	}
	u.RawQuery = ""
	u.Fragment = ""

	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:     strings.TrimRight(u.String(), "/"),
		httpClient:  hc,
		maxAttempts: opts.MaxAttempts,
	}, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ListRefs implements Transport.
func (c *Client) ListRefs(ctx context.Context) (*RefsInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathRefs, nil)
	if err != nil {
		return nil, err
	}
	body, _, err := c.doWithLimit(req, responseLimitRefs)
	if err != nil {
		return nil, err
	}
	var info RefsInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode refs response: %w", err)
	}
	if info.Branches == nil {
		info.Branches = map[string]object.Hash{}
	}
	for name, h := range info.Branches {
		if h != "" && !object.ValidHash(h) {
			return nil, fmt.Errorf("invalid hash for branch %q: %q", name, h)
		}
	}
	return &info, nil
}

// Has implements Transport.
func (c *Client) Has(ctx context.Context, hashes []object.Hash) (map[object.Hash]bool, error) {
	var resp HaveResponse
	if err := c.postJSON(ctx, PathObjectsHave, HashesRequest{Hashes: hashes}, &resp); err != nil {
		return nil, err
	}
	out := make(map[object.Hash]bool, len(hashes))
	for _, h := range hashes {
		out[h] = false
	}
	for _, h := range resp.Have {
		out[h] = true
	}
	return out, nil
}

// Get implements Transport. Responses arrive zstd-compressed.
func (c *Client) Get(ctx context.Context, hashes []object.Hash) ([]Object, error) {
	payload, err := json.Marshal(HashesRequest{Hashes: hashes})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathObjectsGet, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "zstd")

	body, header, err := c.doWithLimit(req, responseLimitBatch)
	if err != nil {
		return nil, err
	}
	return DecodeObjects(body, IsZstdEncoded(header.Get("Content-Encoding")))
}

// Put implements Transport. The request body is zstd-compressed.
func (c *Client) Put(ctx context.Context, objs []Object) error {
	payload, err := EncodeObjects(objs)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathObjectsPut, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "zstd")
	_, _, err = c.doWithLimit(req, responseLimitDefault)
	return err
}

// UpdateBranch implements Transport.
func (c *Client) UpdateBranch(ctx context.Context, branch string, oldHash, newHash object.Hash) error {
	return c.postJSON(ctx, PathRefsUpdate, RefUpdateRequest{Branch: branch, Old: oldHash, New: newHash}, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	body, _, err := c.doWithLimit(req, responseLimitDefault)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doWithLimit(req *http.Request, maxBytes int64) ([]byte, http.Header, error) {
	resp, err := retryDo(c.httpClient, req, c.maxAttempts)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if readErr != nil {
		return nil, nil, readErr
	}
	if resp.StatusCode != http.StatusOK {
		if re := tryParseRemoteError(resp.StatusCode, body); re != nil {
			return nil, nil, re
		}
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, nil, fmt.Errorf("remote request failed (%s %s): %s", req.Method, req.URL.Path, msg)
	}
	return body, resp.Header, nil
}
