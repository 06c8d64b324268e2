package httpclient

import "net/http"

// ClientOption customizes an InstrumentedClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	client       *http.Client
	providerName string
	baseURL      string
	headers      map[string]string
}

func newClientOptions(opts ...ClientOption) *clientOptions {
	options := &clientOptions{
		providerName: "httpclient",
		headers:      map[string]string{},
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithHTTPClient supplies a pre-configured http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) { o.client = c }
}

// WithProviderName names the client for metrics and traces.
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) { o.providerName = name }
}

// WithBaseURL prefixes all request URLs.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithDefaultHeader sets a header sent on every request.
func WithDefaultHeader(key, value string) ClientOption {
	return func(o *clientOptions) { o.headers[key] = value }
}
