package ethereum

import (
	"testing"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{
			name:    "valid_checksummed",
			address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		},
		{
			name:    "all_lowercase_accepted",
			address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		},
		{
			name:    "all_uppercase_accepted",
			address: "0xC02AAA39B223FE8D0A0E5C4F27EAD9083C756CC2",
		},
		{
			name:    "bad_checksum",
			address: "0xC02aaa39b223FE8D0A0e5C4F27eAD9083C756Cc2", // one case flipped
			wantErr: true,
		},
		{
			name:    "too_short",
			address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756C",
			wantErr: true,
		},
		{
			name:    "not_hex",
			address: "0xZZZaaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			wantErr: true,
		},
		{
			name:    "empty",
			address: "",
			wantErr: true,
		},
		{
			name:    "missing_prefix_still_hex",
			address: "C02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ValidateAddress(tt.address)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", addr.Hex())
				}
				if !apperror.IsCode(err, apperror.CodeInvalidAddress) {
					t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidAddress)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if addr.Hex() != "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2" {
				t.Errorf("parsed address = %s", addr.Hex())
			}
		})
	}
}

func TestWithGasBuffer(t *testing.T) {
	tests := []struct {
		name string
		gas  uint64
		want uint64
	}{
		{name: "typical_swap", gas: 200_000, want: 220_000},
		{name: "rounds_down", gas: 21_001, want: 23_101},
		{name: "zero", gas: 0, want: 0},
		{name: "small", gas: 9, want: 9}, // 10% of 9 truncates to 0
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithGasBuffer(tt.gas); got != tt.want {
				t.Errorf("WithGasBuffer(%d) = %d, want %d", tt.gas, got, tt.want)
			}
		})
	}
}
