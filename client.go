package augment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/augmentlab/augment-go/headers"
	"github.com/augmentlab/augment-go/routes"
)

const defaultBaseURL = "http://localhost:5000"
const defaultUserAgent = "augment-go/" + Version

// Config wires authentication, base URL, and telemetry for the API client.
type Config struct {
	BaseURL string
	// Tokens supplies the bearer token for protected routes. It is read on
	// every request, so a session that logs in later is picked up.
	Tokens     TokenSource
	HTTPClient *http.Client
	// Timeout bounds each request when HTTPClient is nil. Zero leaves the
	// transport defaults in place.
	Timeout   time.Duration
	Telemetry TelemetryHooks
	UserAgent string
}

// Client provides high-level helpers for interacting with the augmentation API.
type Client struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
	auth       authChain
	telemetry  TelemetryHooks
	userAgent  string

	// Grouped service clients.
	Auth    *AuthClient
	Augment *AugmentClient
}

// NewClient validates the configuration and returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	u, _ := url.Parse(normalized)
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	client := &Client{
		baseURL:    normalized,
		basePath:   u.Path,
		httpClient: httpClient,
		auth:       authChain{bearerAuth{source: cfg.Tokens}},
		telemetry:  cfg.Telemetry,
		userAgent:  ua,
	}
	client.Auth = &AuthClient{client: client}
	client.Augment = &AugmentClient{client: client}
	return client, nil
}

// BaseURL returns the normalized origin requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ConfigError{Reason: "base URL required"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ConfigError{Reason: fmt.Sprintf("invalid base URL: %v", err)}
	}
	if u.Scheme == "" {
		return "", ConfigError{Reason: "base URL missing scheme (http/https)"}
	}
	if u.Host == "" {
		return "", ConfigError{Reason: "base URL missing host"}
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	injectTraceparent(ctx, req)
	return req, nil
}

type formField struct {
	name  string
	value string
}

// newMultipartRequest buffers the upload and its fields into one
// multipart/form-data body. The file part is always named "image".
func (c *Client) newMultipartRequest(ctx context.Context, path string, upload Upload, fields []formField) (*http.Request, error) {
	content, err := upload.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = content.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "image",
		"filename": upload.Name,
	}))
	contentType, reader, err := sniffUploadType(upload.Name, content)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	partHeader.Set("Content-Type", contentType)
	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, reader); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "*/*")
	injectTraceparent(ctx, req)
	return req, nil
}

func (c *Client) prepare(req *http.Request) error {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get(headers.RequestID) == "" {
		req.Header.Set(headers.RequestID, uuid.NewString())
	}
	if routes.Public(c.routeOf(req)) {
		return nil
	}
	if err := c.auth.Apply(req.Context(), req); err != nil {
		return fmt.Errorf("augment: resolve token: %w", err)
	}
	return nil
}

func (c *Client) routeOf(req *http.Request) string {
	return strings.TrimPrefix(req.URL.Path, c.basePath)
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if err := c.prepare(req); err != nil {
		return nil, err
	}
	if c.telemetry.OnHTTPRequest != nil {
		c.telemetry.OnHTTPRequest(req.Context(), req)
	}
	c.telemetry.log(req.Context(), LogLevelInfo, "http_request", map[string]any{
		"method":     req.Method,
		"url":        req.URL.String(),
		"request_id": req.Header.Get(headers.RequestID),
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.telemetry.OnHTTPResponse != nil {
		c.telemetry.OnHTTPResponse(req.Context(), req, resp, err, time.Since(start))
	}
	c.telemetry.metric(req.Context(), "augment_http_request_latency_ms", float64(time.Since(start).Milliseconds()), map[string]string{
		"path": req.URL.Path,
	})
	if err != nil {
		c.telemetry.log(req.Context(), LogLevelError, "http_request_failed", map[string]any{
			"url":   req.URL.String(),
			"error": err.Error(),
		})
		return nil, TransportError{
			Kind:    classifyTransportErrorKind(err),
			Message: "request failed",
			Cause:   err,
		}
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		apiErr := decodeAPIError(resp)
		c.telemetry.log(req.Context(), LogLevelError, "http_error", map[string]any{
			"url":    req.URL.String(),
			"status": resp.StatusCode,
			"error":  apiErr.Error(),
		})
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) sendAndDecode(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newJSONRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return TransportError{Kind: TransportErrorEmptyResponse, Message: "empty response body"}
		}
		return fmt.Errorf("augment: decode %s response: %w", path, err)
	}
	return nil
}

type binaryResponse struct {
	Data        []byte
	ContentType string
	Filename    string
}

func (c *Client) sendBinary(req *http.Request) (binaryResponse, error) {
	resp, err := c.send(req)
	if err != nil {
		return binaryResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return binaryResponse{}, TransportError{
			Kind:    classifyTransportErrorKind(err),
			Message: "read response body",
			Cause:   err,
		}
	}
	if len(data) == 0 {
		return binaryResponse{}, TransportError{Kind: TransportErrorEmptyResponse, Message: "empty response body"}
	}
	return binaryResponse{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    attachmentFilename(resp.Header.Get(headers.ContentDisposition)),
	}, nil
}

func attachmentFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
