package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultHTTPTimeout = 10 * time.Second

type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHttpClient(baseURL string, timeout time.Duration) *HttpClient {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HttpClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Request describes one outbound call. Query and Headers are optional.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    any
}

func (c *HttpClient) GET(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *HttpClient) POST(ctx context.Context, path string, query url.Values, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Query: query, Body: body})
}

func (c *HttpClient) DELETE(ctx context.Context, path string, query url.Values, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Query: query, Body: body})
}

// Do sends the request and reads the whole body. Non-2xx statuses are not
// errors; callers inspect Response.StatusCode.
func (c *HttpClient) Do(ctx context.Context, r Request) (*Response, error) {
	var reqBody io.Reader
	if r.Body != nil {
		jsonData, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	target := c.BaseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

// GetErrorMessage extracts a human readable message from an error body.
// It understands flat {message}, {error: "..."} and nested {error: {message}} shapes.
func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Code    string          `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		return ""
	}

	if errResp.Message != "" {
		return errResp.Message
	}
	if len(errResp.Error) > 0 {
		var flat string
		if err := json.Unmarshal(errResp.Error, &flat); err == nil && flat != "" {
			return flat
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(errResp.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return errResp.Code
}
