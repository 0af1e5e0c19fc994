package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/racerank/internal/domain/types"
)

// Client talks to the racerank HTTP API.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Upload posts one result file as multipart form data.
func (c *Client) Upload(ctx context.Context, path, jobID, raceName string, distanceKm int) (types.SubmitResult, error) {
	body, contentType, err := multipartBody(path, map[string]string{
		"job_id":      jobID,
		"race_name":   raceName,
		"distance_km": optionalInt(distanceKm),
	})
	if err != nil {
		return types.SubmitResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/races", body)
	if err != nil {
		return types.SubmitResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return types.SubmitResult{}, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	var res types.SubmitResult
	if err := decode(resp, &res, http.StatusAccepted, http.StatusOK); err != nil {
		return types.SubmitResult{}, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	return res, nil
}

// Job fetches the status of a parse job.
func (c *Client) Job(ctx context.Context, id string) (types.JobStatus, error) {
	resp, err := c.get(ctx, "/jobs/"+url.PathEscape(id))
	if err != nil {
		return types.JobStatus{}, err
	}
	var st types.JobStatus
	if err := decode(resp, &st, http.StatusOK); err != nil {
		return types.JobStatus{}, fmt.Errorf("job %s: %w", id, err)
	}
	return st, nil
}

// Standings fetches the top n season standings.
func (c *Client) Standings(ctx context.Context, n int) ([]types.Standing, error) {
	resp, err := c.get(ctx, "/standings?limit="+strconv.Itoa(n))
	if err != nil {
		return nil, err
	}
	var out []types.Standing
	if err := decode(resp, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// decode reads and closes the response body, decoding it into v when the
// status is one of want.
func decode(resp *http.Response, v any, want ...int) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	for _, code := range want {
		if resp.StatusCode == code {
			return json.Unmarshal(data, v)
		}
	}
	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
		return fmt.Errorf("%w: %d %s: %s", ErrStatus, resp.StatusCode, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
}

func multipartBody(path string, fields map[string]string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func optionalInt(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
