// Package api is the client for the GormazAR stats backend.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/GormazAR/overlay/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout is used when New is given a non-positive timeout.
const DefaultTimeout = 10 * time.Second

// StatusError is returned when the backend answers with an unexpected status.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s returned status %d", e.Op, e.Status)
}

// Client handles communication with the stats backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthcheck checks if the backend is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: "healthcheck", Status: resp.StatusCode}
	}
	return nil
}

// RegisterUser registers the device. created is false when the backend already knew it.
func (c *Client) RegisterUser(ctx context.Context, userID string) (created bool, err error) {
	resp, err := c.postForm(ctx, "/registerUser/"+url.PathEscape(userID), nil)
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return true, nil
	case http.StatusOK:
		return false, nil
	default:
		return false, statusError("register user", resp)
	}
}

// IncrementScan counts one scan of docID by userID.
func (c *Client) IncrementScan(ctx context.Context, docID, userID string) (model.ScanResult, error) {
	var out model.ScanResult
	form := url.Values{"user_id": {userID}}
	resp, err := c.postForm(ctx, "/increment/"+url.PathEscape(docID), form)
	if err != nil {
		return out, fmt.Errorf("increment scan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, statusError("increment scan", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode scan result: %w", err)
	}
	return out, nil
}

// EndSession reports a finished session of d.
func (c *Client) EndSession(ctx context.Context, userID string, d time.Duration) (model.SessionResult, error) {
	var out model.SessionResult
	form := url.Values{
		"user_id":  {userID},
		"duration": {strconv.FormatFloat(d.Seconds(), 'f', -1, 64)},
	}
	resp, err := c.postForm(ctx, "/endSession/"+url.PathEscape(userID), form)
	if err != nil {
		return out, fmt.Errorf("end session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, statusError("end session", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode session result: %w", err)
	}
	return out, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.httpClient.Do(req)
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e model.ErrorResponse
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &StatusError{Op: op, Status: resp.StatusCode, Message: msg}
}
