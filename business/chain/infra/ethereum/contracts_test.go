package ethereum

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
)

const erc20ABI = `[{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}]`

func testLoader(t *testing.T) (*ContractLoader, string) {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "erc20.json"), []byte(erc20ABI), 0o644); err != nil {
		t.Fatalf("write interface file: %v", err)
	}
	// Hardhat-style artifact wrapping the ABI.
	artifact := `{"contractName":"Pair","abi":` + erc20ABI + `}`
	if err := os.WriteFile(filepath.Join(dir, "pair.json"), []byte(artifact), 0o644); err != nil {
		t.Fatalf("write artifact file: %v", err)
	}

	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	loader, err := NewContractLoader(dir, 16, log)
	if err != nil {
		t.Fatalf("NewContractLoader: %v", err)
	}
	return loader, dir
}

func TestLoadContract(t *testing.T) {
	loader, _ := testLoader(t)
	ctx := context.Background()
	address := "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

	handle, err := loader.LoadContract(ctx, address, "erc20")
	if err != nil {
		t.Fatalf("LoadContract: %v", err)
	}
	if handle.InterfaceName != "erc20" {
		t.Errorf("interface name = %s, want erc20", handle.InterfaceName)
	}
	if _, ok := handle.ABI.Methods["decimals"]; !ok {
		t.Error("parsed ABI missing decimals method")
	}

	// Second load of the same pair must come from cache.
	again, err := loader.LoadContract(ctx, address, "erc20")
	if err != nil {
		t.Fatalf("cached LoadContract: %v", err)
	}
	if again != handle {
		t.Error("expected the cached handle instance")
	}
	if loader.CacheLen() != 1 {
		t.Errorf("cache len = %d, want 1", loader.CacheLen())
	}
}

func TestLoadContract_ArtifactFormat(t *testing.T) {
	loader, _ := testLoader(t)

	handle, err := loader.LoadContract(context.Background(),
		"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "pair")
	if err != nil {
		t.Fatalf("LoadContract: %v", err)
	}
	if _, ok := handle.ABI.Methods["decimals"]; !ok {
		t.Error("artifact ABI not unwrapped")
	}
}

func TestLoadContract_Errors(t *testing.T) {
	loader, _ := testLoader(t)
	ctx := context.Background()

	tests := []struct {
		name          string
		address       string
		interfaceName string
		wantCode      apperror.Code
	}{
		{
			name:          "invalid_address",
			address:       "not-an-address",
			interfaceName: "erc20",
			wantCode:      apperror.CodeInvalidAddress,
		},
		{
			name:          "unknown_interface",
			address:       "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			interfaceName: "missing",
			wantCode:      apperror.CodeInterfaceNotFound,
		},
		{
			name:          "path_escape_rejected",
			address:       "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			interfaceName: "../erc20",
			wantCode:      apperror.CodeInterfaceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadContract(ctx, tt.address, tt.interfaceName)
			if !apperror.IsCode(err, tt.wantCode) {
				t.Errorf("error code = %s, want %s", apperror.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestLoadContract_DistinctAddressesCachedSeparately(t *testing.T) {
	loader, _ := testLoader(t)
	ctx := context.Background()

	if _, err := loader.LoadContract(ctx, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "erc20"); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.LoadContract(ctx, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "erc20"); err != nil {
		t.Fatal(err)
	}
	if loader.CacheLen() != 2 {
		t.Errorf("cache len = %d, want 2", loader.CacheLen())
	}
}
