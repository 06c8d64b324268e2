package metrics

// Provider identifies a metrics export backend.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "otelCollector"
)

// Config holds the meter provider configuration.
type Config struct {
	ServiceName string
	Provider    []ProviderCfg
}

// ProviderCfg configures one export backend.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// OptionFn customizes the metrics Config.
type OptionFn func(config Config) Config

// WithProviderConfig adds an export backend.
func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)
		return config
	}
}

// WithServiceName sets the OTEL service name resource attribute.
func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

// NewPrometheusConfig returns a Prometheus pull exporter config.
func NewPrometheusConfig() ProviderCfg {
	return ProviderCfg{Provider: PrometheusProvider}
}

// NewOtelCollectorConfig returns a push exporter config for an OTLP collector.
func NewOtelCollectorConfig(url string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: url,
		Headers:  headers,
		Insecure: insecure,
	}
}

// PromServerConfig configures the Prometheus scrape endpoint.
type PromServerConfig struct {
	port string
}

// PromOptionFn customizes the Prometheus scrape endpoint.
type PromOptionFn func(config PromServerConfig) PromServerConfig

// WithPort sets the scrape endpoint port.
func WithPort(port string) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.port = port
		return config
	}
}
