package domain

import (
	"testing"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

func TestVenueFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    Venue
		wantErr bool
	}{
		{in: "uniswap_v2", want: VenueUniswapV2},
		{in: "uniswap_v3", want: VenueUniswapV3},
		{in: "algebra", want: VenueAlgebra},
		{in: "sushiswap", wantErr: true},
		{in: "UNISWAP_V2", wantErr: true}, // names are exact, no normalization
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := VenueFromString(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				if !apperror.IsCode(err, apperror.CodeUnsupportedVenue) {
					t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeUnsupportedVenue)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("VenueFromString(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestVenueString_RoundTrip(t *testing.T) {
	for _, v := range []Venue{VenueUniswapV2, VenueUniswapV3, VenueAlgebra} {
		got, err := VenueFromString(v.String())
		if err != nil || got != v {
			t.Errorf("round trip failed for %s: got %s, err %v", v, got, err)
		}
	}
}
