// Package client is the thin authenticated gateway to the attendance
// backend. Every operation checks its local preconditions (base URL,
// credential presence) before touching the network.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atlasops/atlas/pkg/domain"
)

// Client is the attendance API client. The token callback is consulted on
// every call so pages always see the current session credential.
type Client struct {
	baseURL    string
	token      func() string
	httpClient *http.Client
}

// New creates a new API client. token returns the normalized bearer
// credential, or "" when the operator is signed out.
func New(baseURL string, token func() string) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WorkerPage is one page of the credential library.
type WorkerPage struct {
	Workers []domain.Worker
	Cursor  domain.Cursor
}

// ScanPage is one page of the attendance log.
type ScanPage struct {
	Scans  []domain.ScanRecord
	Cursor domain.Cursor
}

// ScanResult is the backend's acknowledgement of a submitted badge scan.
type ScanResult struct {
	WorkerName string
	Message    string
}

// Login exchanges operator credentials for a raw session token. A response
// without a token is an authentication failure even on HTTP success.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	if c.baseURL == "" {
		return "", ErrNoBaseURL
	}
	body, err := c.do(ctx, http.MethodPost, "/login/", map[string]string{
		"username": username,
		"password": password,
	}, false)
	if err != nil {
		return "", fmt.Errorf("client.Login: %w", err)
	}
	var payload loginPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("client.Login: decode response: %w", err)
	}
	token := payload.token()
	if token == "" {
		return "", fmt.Errorf("client.Login: response did not include a token")
	}
	return token, nil
}

// ListWorkers fetches one page of the credential library.
func (c *Client) ListWorkers(ctx context.Context, page, pageSize int) (*WorkerPage, error) {
	body, err := c.getPaged(ctx, "/workers/", page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("client.ListWorkers: %w", err)
	}
	env, err := decodeListEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("client.ListWorkers: %w", err)
	}
	workers := make([]domain.Worker, 0, len(env.items))
	for i, raw := range env.items {
		var p workerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("client.ListWorkers: decode record %d: %w", i, err)
		}
		workers = append(workers, p.toDomain(i))
	}
	return &WorkerPage{Workers: workers, Cursor: env.cursor(page, pageSize)}, nil
}

// GenerateQR issues a new employee credential. The returned record carries
// whatever subset of {full_name, qr_code, id} the backend reported, falling
// back to the requested name.
func (c *Client) GenerateQR(ctx context.Context, fullName string) (*domain.Worker, error) {
	body, err := c.do(ctx, http.MethodPost, "/generate-qr/", map[string]string{
		"full_name": fullName,
	}, true)
	if err != nil {
		return nil, fmt.Errorf("client.GenerateQR: %w", err)
	}

	var payload struct {
		workerPayload
		Data *workerPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("client.GenerateQR: decode response: %w", err)
	}
	source := payload.workerPayload
	if payload.Data != nil && source.FullName == "" && source.QRCode == "" {
		source = *payload.Data
	}
	if source.FullName == "" {
		source.FullName = fullName
	}
	worker := source.toDomain(0)
	worker.CreatedAt = time.Now()
	worker.CreatedAtText = ""
	return &worker, nil
}

// ListScans fetches one page of the attendance log.
func (c *Client) ListScans(ctx context.Context, page, pageSize int) (*ScanPage, error) {
	body, err := c.getPaged(ctx, "/scanned-users/", page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("client.ListScans: %w", err)
	}
	env, err := decodeListEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("client.ListScans: %w", err)
	}
	scans := make([]domain.ScanRecord, 0, len(env.items))
	for i, raw := range env.items {
		var p scanPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("client.ListScans: decode record %d: %w", i, err)
		}
		scans = append(scans, p.toDomain(i))
	}
	return &ScanPage{Scans: scans, Cursor: env.cursor(page, pageSize)}, nil
}

// DeleteLogEntry removes an attendance record by id. The caller drops the
// matching local record regardless of the response body shape.
func (c *Client) DeleteLogEntry(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, http.MethodDelete, "/log/delete/"+strconv.FormatInt(id, 10)+"/", nil, true); err != nil {
		return fmt.Errorf("client.DeleteLogEntry: %w", err)
	}
	return nil
}

// ExportExcel downloads the attendance spreadsheet for the given page as a
// raw binary payload.
func (c *Client) ExportExcel(ctx context.Context, page, pageSize int) ([]byte, error) {
	body, err := c.getPaged(ctx, "/export-excel/", page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("client.ExportExcel: %w", err)
	}
	return body, nil
}

// SubmitScan sends a decoded badge payload for validation. A 401 here means
// the session credential is dead; the caller purges it and re-routes.
func (c *Client) SubmitScan(ctx context.Context, qrText string) (*ScanResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/scan/", map[string]string{
		"qr_text": qrText,
	}, true)
	if err != nil {
		return nil, fmt.Errorf("client.SubmitScan: %w", err)
	}
	var payload scanResponsePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("client.SubmitScan: decode response: %w", err)
	}
	return &ScanResult{
		WorkerName: payload.workerName(),
		Message:    payload.feedback(),
	}, nil
}

func (c *Client) getPaged(ctx context.Context, path string, page, pageSize int) ([]byte, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	return c.do(ctx, http.MethodGet, path+"?"+params.Encode(), nil, true)
}

// do issues one authenticated request and returns the raw response body.
// authed operations fail fast on a missing base URL or credential without
// touching the network.
func (c *Client) do(ctx context.Context, method, path string, body any, authed bool) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNoBaseURL
	}
	token := ""
	if authed {
		token = c.token()
		if token == "" {
			return nil, ErrNoCredentials
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20)) // 32 MB cap, exports included
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, newHTTPError(resp.StatusCode, respBody)
	}
	return respBody, nil
}
