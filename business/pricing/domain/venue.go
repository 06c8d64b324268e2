// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

// Venue identifies an exchange variant. The set is closed: pool-state layout
// and amount math are variant-specific, so an unknown tag is an error, never
// a guess.
type Venue int

const (
	VenueUnknown Venue = iota
	VenueUniswapV2
	VenueUniswapV3
	VenueAlgebra
)

// String returns the config name for the venue.
func (v Venue) String() string {
	switch v {
	case VenueUniswapV2:
		return "uniswap_v2"
	case VenueUniswapV3:
		return "uniswap_v3"
	case VenueAlgebra:
		return "algebra"
	default:
		return "unknown"
	}
}

// VenueFromString parses a config venue kind.
func VenueFromString(s string) (Venue, error) {
	switch s {
	case "uniswap_v2":
		return VenueUniswapV2, nil
	case "uniswap_v3":
		return VenueUniswapV3, nil
	case "algebra":
		return VenueAlgebra, nil
	default:
		return VenueUnknown, apperror.New(apperror.CodeUnsupportedVenue,
			apperror.WithContext(fmt.Sprintf("unknown venue kind %q", s)))
	}
}

// Direction is the swap direction relative to the pool's token ordering.
type Direction int

const (
	// ZeroForOne swaps token0 in for token1 out.
	ZeroForOne Direction = iota
	// OneForZero swaps token1 in for token0 out.
	OneForZero
)

// String returns a short label for logging.
func (d Direction) String() string {
	if d == ZeroForOne {
		return "0->1"
	}
	return "1->0"
}
