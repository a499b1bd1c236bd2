package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"media-compressor/internal/compressor"
	"media-compressor/internal/history"
	"media-compressor/internal/queue"
)

// DefaultBaseURL is the server address used when none is configured.
const DefaultBaseURL = "http://localhost:3000"

const defaultTimeout = 15 * time.Second

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Body)
}

// IsConflict reports whether err is a 409 from the server, which the API
// returns for a start while running and for a move while processing.
func IsConflict(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusConflict
}

// Client talks to the compressor HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Progress returns the aggregate progress of the current run.
func (c *Client) Progress(ctx context.Context) (compressor.Progress, error) {
	var p compressor.Progress
	err := c.getJSON(ctx, "/api/progress", &p)
	return p, err
}

// Queue returns the items of the current run.
func (c *Client) Queue(ctx context.Context) ([]queue.Item, error) {
	var items []queue.Item
	err := c.getJSON(ctx, "/api/queue", &items)
	return items, err
}

// State returns the run state including the current browse directory.
func (c *Client) State(ctx context.Context) (compressor.RunState, error) {
	var s compressor.RunState
	err := c.getJSON(ctx, "/api/state", &s)
	return s, err
}

// Browse lists the current browse directory.
func (c *Client) Browse(ctx context.Context) (compressor.Listing, error) {
	var l compressor.Listing
	body, err := c.post(ctx, "/api/browse", map[string]string{"type": "read"})
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal(body, &l); err != nil {
		return l, fmt.Errorf("decode listing: %w", err)
	}
	return l, nil
}

// Move changes the browse directory and returns the new path.
func (c *Client) Move(ctx context.Context, dir string) (string, error) {
	body, err := c.post(ctx, "/api/browse", map[string]string{"type": "move", "dir": dir})
	return string(body), err
}

// Start begins a run with the given encoder options and returns the
// server's message.
func (c *Client) Start(ctx context.Context, options []string) (string, error) {
	if options == nil {
		options = []string{}
	}
	body, err := c.post(ctx, "/api/compress", map[string]interface{}{"type": "start", "options": options})
	return string(body), err
}

// Stop ends the current run and returns the server's message.
func (c *Client) Stop(ctx context.Context) (string, error) {
	body, err := c.post(ctx, "/api/compress", map[string]string{"type": "stop"})
	return string(body), err
}

// History returns up to limit recent runs. Zero uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]history.Run, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var runs []history.Run
	err := c.getJSON(ctx, path, &runs)
	return runs, err
}

// Run returns one run with its item outcomes.
func (c *Client) Run(ctx context.Context, id int64) (*history.Run, error) {
	var run history.Run
	if err := c.getJSON(ctx, "/api/history/"+strconv.FormatInt(id, 10), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, data)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "compressctl")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}
