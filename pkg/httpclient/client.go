package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/logger"
	"github.com/google/uuid"
)

// TokenSource yields the bearer token for the current session, or "" when
// nobody is logged in.
type TokenSource interface {
	Token() string
}

// API is the subset of Client the resource services depend on.
type API interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string) error
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	_, err := c.Do(ctx, http.MethodGet, path, nil, out)
	return err
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodPost, path, body, out)
	return err
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodPut, path, body, out)
	return err
}

// Delete succeeds on 204, or on any other 2xx that carries no body.
func (c *Client) Delete(ctx context.Context, path string) error {
	status, body, err := c.send(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && len(bytes.TrimSpace(body)) > 0 {
		return apperror.New(status, fmt.Sprintf("delete %s: server answered %d with a body", path, status), apperror.ErrUnexpectedBody)
	}
	return nil
}

// Do sends body as JSON and decodes a non-empty response into out. It
// returns the response status.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	status, respBody, err := c.send(ctx, method, path, body)
	if err != nil {
		return status, err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return status, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return status, apperror.New(status, fmt.Sprintf("%s %s: invalid response body", method, path), fmt.Errorf("%w: %v", apperror.ErrUnexpectedBody, err))
	}
	return status, nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	authenticated := false
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			authenticated = true
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err,
		})
		return 0, nil, apperror.New(0, "could not reach the server", fmt.Errorf("%w: %v", apperror.ErrNetwork, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, apperror.New(0, "could not read the server response", fmt.Errorf("%w: %v", apperror.ErrNetwork, err))
	}

	c.log.Debug("request", map[string]interface{}{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"auth":     authenticated,
		"duration": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, respBody, apperror.FromStatus(resp.StatusCode, errorMessage(respBody))
	}
	return resp.StatusCode, respBody, nil
}

// errorMessage extracts the human readable part of an error body: the
// "error" or "message" field of a JSON object, otherwise the text itself.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		for _, key := range []string{"error", "message"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
		return text
	}

	// A JSON encoded string such as "Invalid credentials".
	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s
	}
	return text
}
