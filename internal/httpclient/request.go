package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is the interface for building and executing HTTP requests.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)

	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result interface{}) Request
}

// Response wraps http.Response with body helpers.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body as bytes.
func (r *Response) Body() []byte { return r.body }

// String returns the response body as string.
func (r *Response) String() string { return string(r.body) }

// IsError returns true if the status code indicates an error (>= 400).
func (r *Response) IsError() bool { return r.StatusCode >= 400 }

type request struct {
	client  *InstrumentedClient
	headers map[string]string
	query   map[string]string
	result  interface{}
}

func (r *request) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *request) SetQueryParam(key, value string) Request {
	r.query[key] = value
	return r
}

func (r *request) SetResult(result interface{}) Request {
	r.result = result
	return r
}

func (r *request) Get(ctx context.Context, path string) (*Response, error) {
	fullURL := path
	if r.client.baseURL != "" && !strings.HasPrefix(path, "http") {
		fullURL = strings.TrimSuffix(r.client.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	ctx, span := r.client.tracer.Start(ctx, "http.get",
		trace.WithAttributes(attribute.String("url", fullURL)),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build request: %w", err)
	}

	if len(r.query) > 0 {
		q := url.Values{}
		for k, v := range r.query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	for k, v := range r.client.defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read body: %w", err)
	}

	wrapped := &Response{Response: resp, body: body}

	span.SetAttributes(attribute.Int("status_code", resp.StatusCode))

	if r.result != nil && !wrapped.IsError() {
		if err := json.Unmarshal(body, r.result); err != nil {
			span.RecordError(err)
			return wrapped, fmt.Errorf("decode response: %w", err)
		}
	}

	span.SetStatus(codes.Ok, "")
	return wrapped, nil
}
