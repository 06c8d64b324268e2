package asset

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	usdc, ok := r.GetToken(ChainIDEthereum, AddrUSDCEthereum)
	if !ok {
		t.Fatal("USDC not registered")
	}
	if usdc.Symbol() != "USDC" || usdc.Decimals() != 6 {
		t.Errorf("USDC = %s/%d, want USDC/6", usdc.Symbol(), usdc.Decimals())
	}

	if _, ok := r.Get(NewNativeAssetID(ChainIDEthereum)); !ok {
		t.Error("native ETH not registered")
	}
}

func TestRegistry_Decimals(t *testing.T) {
	r := DefaultRegistry()

	if d, ok := r.Decimals(ChainIDEthereum, AddrUSDCEthereum); !ok || d != 6 {
		t.Errorf("USDC decimals = %d, %v; want 6, true", d, ok)
	}
	if d, ok := r.Decimals(ChainIDEthereum, AddrWETHEthereum); !ok || d != 18 {
		t.Errorf("WETH decimals = %d, %v; want 18, true", d, ok)
	}

	// Unregistered tokens fall back to 18.
	unknown := common.HexToAddress("0x0000000000000000000000000000000000000001")
	if d, ok := r.Decimals(ChainIDEthereum, unknown); ok || d != 18 {
		t.Errorf("unknown token decimals = %d, %v; want 18, false", d, ok)
	}
}

func TestAssetID_Identity(t *testing.T) {
	a := NewTokenAssetID(ChainIDEthereum, AddrWETHEthereum)
	b := NewTokenAssetID(ChainIDEthereum, AddrWETHEthereum)
	if !a.Equals(b) {
		t.Error("identical token ids not equal")
	}

	c := NewTokenAssetID(ChainIDPolygon, AddrWETHEthereum)
	if a.Equals(c) {
		t.Error("same address on different chains must differ")
	}

	if a.Equals(NewNativeAssetID(ChainIDEthereum)) {
		t.Error("token id equals native id")
	}
}
