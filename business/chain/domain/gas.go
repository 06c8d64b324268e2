// Package domain contains the core domain types for the chain context.
package domain

import (
	"math/big"
	"time"
)

// GasPrice represents gas price information.
type GasPrice struct {
	Wei       *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int) *GasPrice {
	return &GasPrice{
		Wei:       new(big.Int).Set(wei),
		Timestamp: time.Now(),
	}
}

// Gwei returns the price in gwei, for logging and metrics only.
func (g *GasPrice) Gwei() float64 {
	f := new(big.Float).SetInt(g.Wei)
	f.Quo(f, big.NewFloat(1e9))
	v, _ := f.Float64()
	return v
}

// GasEstimate represents estimated gas costs for an operation.
type GasEstimate struct {
	GasLimit uint64
	GasPrice *GasPrice
}

// NewGasEstimate creates a GasEstimate from a limit and a price.
func NewGasEstimate(gasLimit uint64, gasPrice *GasPrice) *GasEstimate {
	return &GasEstimate{
		GasLimit: gasLimit,
		GasPrice: gasPrice,
	}
}

// TotalWei returns the total cost in wei at the estimated price.
func (e *GasEstimate) TotalWei() *big.Int {
	return new(big.Int).Mul(e.GasPrice.Wei, new(big.Int).SetUint64(e.GasLimit))
}

// TotalGwei returns the total cost in gwei, for logging and metrics only.
func (e *GasEstimate) TotalGwei() float64 {
	return e.GasPrice.Gwei() * float64(e.GasLimit)
}
