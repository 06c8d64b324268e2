package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConfigYAML = `
app:
  name: arbengine-test
  log_level: debug
ethereum:
  http_url: http://localhost:8545
  chain_id: 1
venues:
  - name: uni-v2-weth-usdc
    kind: uniswap_v2
    router_address: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"
    pool_address: "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"
    max_amount_in: "1000000000000000000"
`

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "arbengine-test" {
		t.Errorf("app name = %s", cfg.App.Name)
	}
	if cfg.Ethereum.MulticallAddress != "0xcA11bde05977b3631167028862bE2a173976CA11" {
		t.Errorf("default multicall address = %s", cfg.Ethereum.MulticallAddress)
	}
	if cfg.Ethereum.ContractCacheSize != 256 {
		t.Errorf("default contract cache size = %d", cfg.Ethereum.ContractCacheSize)
	}
	if cfg.Execution.GasEscalationBps != 1000 {
		t.Errorf("default gas escalation = %d bps", cfg.Execution.GasEscalationBps)
	}
	if cfg.Execution.DeadlineWindow != 60*time.Second {
		t.Errorf("default deadline window = %s", cfg.Execution.DeadlineWindow)
	}
	if cfg.Arbitrage.MaxPriceImpact != 0.02 {
		t.Errorf("default max price impact = %f", cfg.Arbitrage.MaxPriceImpact)
	}
	if !cfg.Health.Enabled || cfg.Health.Port != 8081 {
		t.Errorf("default health config = %+v", cfg.Health)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ARB_ETHEREUM_HTTP_URL", "http://env-node:8545")

	cfg, err := Load(writeConfig(t, testConfigYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ethereum.HTTPURL != "http://env-node:8545" {
		t.Errorf("http url = %s, want env override", cfg.Ethereum.HTTPURL)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeConfig(t, testConfigYAML))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing_http_url", mutate: func(c *Config) { c.Ethereum.HTTPURL = "" }, wantErr: true},
		{name: "zero_chain_id", mutate: func(c *Config) { c.Ethereum.ChainID = 0 }, wantErr: true},
		{name: "bad_multicall_address", mutate: func(c *Config) { c.Ethereum.MulticallAddress = "xyz" }, wantErr: true},
		{name: "impact_at_one", mutate: func(c *Config) { c.Arbitrage.MaxPriceImpact = 1 }, wantErr: true},
		{name: "negative_impact", mutate: func(c *Config) { c.Arbitrage.MaxPriceImpact = -0.1 }, wantErr: true},
		{name: "zero_gas_limit", mutate: func(c *Config) { c.Execution.GasLimit = 0 }, wantErr: true},
		{name: "zero_deadline", mutate: func(c *Config) { c.Execution.DeadlineWindow = 0 }, wantErr: true},
		{name: "venue_without_name", mutate: func(c *Config) { c.Venues[0].Name = "" }, wantErr: true},
		{name: "venue_unknown_kind", mutate: func(c *Config) { c.Venues[0].Kind = "balancer" }, wantErr: true},
		{name: "venue_bad_router", mutate: func(c *Config) { c.Venues[0].RouterAddress = "0x1" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestVenueConfig_MaxAmountInBig(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  *big.Int
	}{
		{name: "parses", value: "1000000000000000000", want: big.NewInt(1_000_000_000_000_000_000)},
		{name: "empty_means_no_allocation", value: "", want: nil},
		{name: "garbage_means_no_allocation", value: "1.5e18", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := VenueConfig{MaxAmountIn: tt.value}
			got := c.MaxAmountInBig()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("MaxAmountInBig() = %v, want %v", got, tt.want)
			}
			if got != nil && got.Cmp(tt.want) != 0 {
				t.Errorf("MaxAmountInBig() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExecutionConfig_MaxGasPriceWei(t *testing.T) {
	c := ExecutionConfig{MaxGasPriceGwei: 300}
	want := new(big.Int).Mul(big.NewInt(300), big.NewInt(1_000_000_000))
	if got := c.MaxGasPriceWei(); got.Cmp(want) != 0 {
		t.Errorf("MaxGasPriceWei() = %s, want %s", got, want)
	}
}
