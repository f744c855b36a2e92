package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// Version is the figma-cards release.
	Version = "0.1.0"

	// DefaultBaseURL is the Figma REST API root.
	DefaultBaseURL = "https://api.figma.com/v1"

	// maxErrorBody bounds how much of a failed response is read for its reason.
	maxErrorBody = 4096
)

// Client represents a Figma API client authenticated with a personal access token.
// Requests are issued once: failures surface immediately as *FetchError, with no retry.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new Figma API client with the provided personal access token.
// The default transport pools connections and leaves HTTP/2 off, which keeps large
// document responses stable.
func NewClient(accessToken string, opts ...Option) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		ForceAttemptHTTP2:   false,
	}

	c := &Client{
		accessToken: accessToken,
		baseURL:     DefaultBaseURL,
		httpClient: &http.Client{
			Timeout:   5 * time.Minute,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchError is returned for any Figma request that did not produce a successful response.
// Status is zero when the request never got a response (transport failure).
type FetchError struct {
	Endpoint string // request path, without query
	Status   int
	Reason   string // HTTP status text, or the transport error
	Detail   string // Figma's own "err"/"message" field, when present
	Err      error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("figma: GET ")
	b.WriteString(e.Endpoint)
	b.WriteString(": ")
	if e.Status != 0 {
		b.WriteString(strconv.Itoa(e.Status))
		b.WriteByte(' ')
	}
	b.WriteString(e.Reason)
	if e.Detail != "" && e.Detail != e.Reason {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteByte(')')
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// errorDetail pulls Figma's error message out of a failed response body.
// Figma uses {"status":403,"err":"..."} on most endpoints and {"error":true,"message":"..."} on newer ones.
func errorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, path := range []string{"err", "message"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// get issues an authenticated GET against path (relative to the API root) and returns the body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Figma-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: path, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{
			Endpoint: path,
			Status:   resp.StatusCode,
			Reason:   http.StatusText(resp.StatusCode),
			Detail:   errorDetail(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Endpoint: path, Status: resp.StatusCode, Reason: "failed to read response body: " + err.Error(), Err: err}
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to parse response from %s: invalid JSON", path)
	}
	return json.RawMessage(body), nil
}

// GetFileNodes fetches the document subtrees of the given node IDs with a single request.
// Node IDs the file does not contain are absent from the returned map.
func (c *Client) GetFileNodes(ctx context.Context, fileKey string, nodeIDs []string) (*NodesResponse, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(nodeIDs, ","))

	var nodesResp NodesResponse
	if err := c.getJSON(ctx, "/files/"+url.PathEscape(fileKey)+"/nodes", query, &nodesResp); err != nil {
		return nil, err
	}
	for id, nd := range nodesResp.Nodes {
		if nd == nil {
			delete(nodesResp.Nodes, id)
		}
	}
	return &nodesResp, nil
}

// GetImages asks Figma to render the given nodes and returns temporary download URLs.
func (c *Client) GetImages(ctx context.Context, fileKey string, nodeIDs []string, format string, scale float64) (*ImagesResponse, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(nodeIDs, ","))
	query.Set("format", format)
	if scale > 0 {
		query.Set("scale", strconv.FormatFloat(scale, 'f', -1, 64))
	}

	var imgResp ImagesResponse
	if err := c.getJSON(ctx, "/images/"+url.PathEscape(fileKey), query, &imgResp); err != nil {
		return nil, err
	}
	if imgResp.Err != "" {
		return nil, fmt.Errorf("render failed: %s", imgResp.Err)
	}
	return &imgResp, nil
}

// Download streams a rendered image URL into w. Render URLs are pre-signed,
// so no token is sent.
func (c *Client) Download(ctx context.Context, imageURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to copy image body: %w", err)
	}
	return nil
}

// GetFile returns the file document JSON untouched.
func (c *Client) GetFile(ctx context.Context, fileKey string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/files/"+url.PathEscape(fileKey))
}

// GetFileStyles returns the published styles of a file.
func (c *Client) GetFileStyles(ctx context.Context, fileKey string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/files/"+url.PathEscape(fileKey)+"/styles")
}

// GetFileComponents returns the published components of a file.
func (c *Client) GetFileComponents(ctx context.Context, fileKey string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/files/"+url.PathEscape(fileKey)+"/components")
}

// GetFileVariables returns the local variables and collections of a file.
// The endpoint requires an Enterprise plan, so callers should expect 403s.
func (c *Client) GetFileVariables(ctx context.Context, fileKey string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/files/"+url.PathEscape(fileKey)+"/variables/local")
}

// GetComments returns the comment threads of a file.
func (c *Client) GetComments(ctx context.Context, fileKey string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/files/"+url.PathEscape(fileKey)+"/comments")
}

var (
	fileKeyRe     = regexp.MustCompile(`^https?://(?:www\.)?figma\.com/(?:file|design)/([A-Za-z0-9]+)(?:/|$|\?|#)`)
	queryNodeRe   = regexp.MustCompile(`[?&]node-id=([^&#]*)`)
	pathNodeRe    = regexp.MustCompile(`/nodes/([^?#/]+)`)
	fragmentRe    = regexp.MustCompile(`#([0-9:,\- ]+)$`)
	nodeIDShapeRe = regexp.MustCompile(`^[0-9]+[:-][0-9]+$`)
)

// ExtractFileKey extracts the unique file identifier from a Figma URL.
// Supports both /file/ and /design/ URL patterns (e.g., figma.com/file/ABC123/Design-Name).
func ExtractFileKey(figmaURL string) (string, error) {
	matches := fileKeyRe.FindStringSubmatch(figmaURL)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Figma URL format: must be a valid figma.com URL with /file/ or /design/ path")
	}

	return matches[1], nil
}

// ExtractNodeIDs returns the node IDs referenced by a Figma URL, from the node-id query
// parameter, a /nodes/ path segment or a #fragment. URL-style IDs ("12-34") are normalized
// to API form ("12:34"). The result is deduplicated and never nil.
func ExtractNodeIDs(figmaURL string) ([]string, error) {
	var raw string
	switch {
	case queryNodeRe.MatchString(figmaURL):
		raw = queryNodeRe.FindStringSubmatch(figmaURL)[1]
	case pathNodeRe.MatchString(figmaURL):
		raw = pathNodeRe.FindStringSubmatch(figmaURL)[1]
	case fragmentRe.MatchString(figmaURL):
		raw = fragmentRe.FindStringSubmatch(figmaURL)[1]
	default:
		return []string{}, nil
	}

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid node-id %q: %w", raw, err)
	}

	ids := []string{}
	for _, part := range strings.Split(decoded, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if nodeIDShapeRe.MatchString(id) {
			id = strings.Replace(id, "-", ":", 1)
		}
		ids = append(ids, id)
	}

	return DeduplicateNodeIDs(ids), nil
}

// DeduplicateNodeIDs drops repeated IDs, keeping first-seen order.
func DeduplicateNodeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
