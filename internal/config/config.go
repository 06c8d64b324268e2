// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Venues    []VenueConfig   `mapstructure:"venues"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds chain node configuration.
type EthereumConfig struct {
	HTTPURL            string        `mapstructure:"http_url"`
	WebSocketURL       string        `mapstructure:"websocket_url"`
	ChainID            uint64        `mapstructure:"chain_id"`
	InterfaceDir       string        `mapstructure:"interface_dir"`
	MulticallAddress   string        `mapstructure:"multicall_address"`
	RPCRateLimit       float64       `mapstructure:"rpc_rate_limit"`     // requests per second
	ContractCacheSize  int           `mapstructure:"contract_cache_size"`
	GasCacheTTL        time.Duration `mapstructure:"gas_cache_ttl"`
	MaxGasPriceGwei    int64         `mapstructure:"max_gas_price_gwei"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	SerializePoolReads bool          `mapstructure:"serialize_pool_reads"`
}

// MulticallAddressHex returns the multicall aggregator address.
func (c *EthereumConfig) MulticallAddressHex() common.Address {
	return common.HexToAddress(c.MulticallAddress)
}

// MaxGasPriceWei returns the gas price ceiling in wei.
func (c *EthereumConfig) MaxGasPriceWei() *big.Int {
	gwei := big.NewInt(c.MaxGasPriceGwei)
	return gwei.Mul(gwei, big.NewInt(1_000_000_000))
}

// VenueConfig describes one exchange deployment.
type VenueConfig struct {
	Name          string `mapstructure:"name"`
	Kind          string `mapstructure:"kind"` // uniswap_v2 | uniswap_v3 | algebra
	RouterAddress string `mapstructure:"router_address"`
	PoolAddress   string `mapstructure:"pool_address"`
	FeeTier       uint32 `mapstructure:"fee_tier"`      // hundredths of a bip
	MaxAmountIn   string `mapstructure:"max_amount_in"` // capital cap, input token base units
}

// RouterAddressHex returns the venue router address.
func (c *VenueConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// PoolAddressHex returns the venue pool address.
func (c *VenueConfig) PoolAddressHex() common.Address {
	return common.HexToAddress(c.PoolAddress)
}

// MaxAmountInBig returns the venue capital cap as a big integer. A missing
// or unparsable cap yields nil, meaning no capital allocated.
func (c *VenueConfig) MaxAmountInBig() *big.Int {
	v, ok := new(big.Int).SetString(c.MaxAmountIn, 10)
	if !ok {
		return nil
	}
	return v
}

// ArbitrageConfig holds opportunity validation thresholds.
type ArbitrageConfig struct {
	MinProfitUSD   float64 `mapstructure:"min_profit_usd"`
	MaxPriceImpact float64 `mapstructure:"max_price_impact"` // fraction in [0,1)
	MinLiquidity   string  `mapstructure:"min_liquidity"`    // venue-native units
}

// MinProfitUSDDecimal returns min profit USD as decimal.
func (c *ArbitrageConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitUSD)
}

// MaxPriceImpactDecimal returns max price impact as decimal.
func (c *ArbitrageConfig) MaxPriceImpactDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxPriceImpact)
}

// MinLiquidityBig returns the minimum pool liquidity as a big integer.
func (c *ArbitrageConfig) MinLiquidityBig() *big.Int {
	v, ok := new(big.Int).SetString(c.MinLiquidity, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// ExecutionConfig is the immutable execution snapshot read at startup.
type ExecutionConfig struct {
	PrivateKey         string        `mapstructure:"private_key"` // hex, no 0x prefix; env only
	MaxSlippageBps     int64         `mapstructure:"max_slippage_bps"`
	GasLimit           uint64        `mapstructure:"gas_limit"`
	MaxGasPriceGwei    int64         `mapstructure:"max_gas_price_gwei"`
	GasEscalationBps   int64         `mapstructure:"gas_escalation_bps"` // per pending tx
	DeadlineWindow     time.Duration `mapstructure:"deadline_window"`
	RetryAttempts      int           `mapstructure:"retry_attempts"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	ConfirmationBlocks uint64        `mapstructure:"confirmation_blocks"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// MaxGasPriceWei returns the execution gas price ceiling in wei.
func (c *ExecutionConfig) MaxGasPriceWei() *big.Int {
	gwei := big.NewInt(c.MaxGasPriceGwei)
	return gwei.Mul(gwei, big.NewInt(1_000_000_000))
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	TraceProvider  string `mapstructure:"trace_provider"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health endpoint configuration.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	bindings := map[string]string{
		"ethereum.http_url":      "ARB_ETHEREUM_HTTP_URL",
		"ethereum.websocket_url": "ARB_ETHEREUM_WEBSOCKET_URL",
		"ethereum.chain_id":      "ARB_ETHEREUM_CHAIN_ID",
		"execution.private_key":  "ARB_EXECUTION_PRIVATE_KEY",
		"app.log_level":          "ARB_LOG_LEVEL",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "arbengine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.interface_dir", "interfaces")
	v.SetDefault("ethereum.multicall_address", "0xcA11bde05977b3631167028862bE2a173976CA11")
	v.SetDefault("ethereum.rpc_rate_limit", 25.0)
	v.SetDefault("ethereum.contract_cache_size", 256)
	v.SetDefault("ethereum.gas_cache_ttl", 12*time.Second)
	v.SetDefault("ethereum.max_gas_price_gwei", 500)
	v.SetDefault("ethereum.poll_interval", 12*time.Second)
	v.SetDefault("ethereum.reconnect_delay", 5*time.Second)
	v.SetDefault("ethereum.serialize_pool_reads", false)

	v.SetDefault("arbitrage.min_profit_usd", 5.0)
	v.SetDefault("arbitrage.max_price_impact", 0.02)
	v.SetDefault("arbitrage.min_liquidity", "1000000")

	v.SetDefault("execution.max_slippage_bps", 50)
	v.SetDefault("execution.gas_limit", 300_000)
	v.SetDefault("execution.max_gas_price_gwei", 300)
	v.SetDefault("execution.gas_escalation_bps", 1000)
	v.SetDefault("execution.deadline_window", 60*time.Second)
	v.SetDefault("execution.retry_attempts", 3)
	v.SetDefault("execution.retry_delay", 500*time.Millisecond)
	v.SetDefault("execution.confirmation_blocks", 2)
	v.SetDefault("execution.timeout", 90*time.Second)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arbengine")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if c.Ethereum.ChainID == 0 {
		return fmt.Errorf("ethereum.chain_id must be non-zero")
	}
	if !common.IsHexAddress(c.Ethereum.MulticallAddress) {
		return fmt.Errorf("ethereum.multicall_address is not a valid address")
	}
	if c.Arbitrage.MaxPriceImpact < 0 || c.Arbitrage.MaxPriceImpact >= 1 {
		return fmt.Errorf("arbitrage.max_price_impact must be in [0,1)")
	}
	if c.Execution.GasLimit == 0 {
		return fmt.Errorf("execution.gas_limit must be non-zero")
	}
	if c.Execution.MaxGasPriceGwei <= 0 {
		return fmt.Errorf("execution.max_gas_price_gwei must be positive")
	}
	if c.Execution.GasEscalationBps < 0 {
		return fmt.Errorf("execution.gas_escalation_bps must not be negative")
	}
	if c.Execution.DeadlineWindow <= 0 {
		return fmt.Errorf("execution.deadline_window must be positive")
	}

	for i, venue := range c.Venues {
		if venue.Name == "" {
			return fmt.Errorf("venues[%d].name is required", i)
		}
		switch venue.Kind {
		case "uniswap_v2", "uniswap_v3", "algebra":
		default:
			return fmt.Errorf("venues[%d].kind %q is not supported", i, venue.Kind)
		}
		if !common.IsHexAddress(venue.RouterAddress) {
			return fmt.Errorf("venues[%d].router_address is not a valid address", i)
		}
		if !common.IsHexAddress(venue.PoolAddress) {
			return fmt.Errorf("venues[%d].pool_address is not a valid address", i)
		}
	}

	return nil
}
