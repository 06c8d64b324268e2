// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

// Status is the lifecycle state of an opportunity. Transitions are
// monotonic: Ready -> Executing -> {Executed | Failed}, never backward.
type Status string

const (
	StatusReady     Status = "ready"
	StatusExecuting Status = "executing"
	StatusExecuted  Status = "executed"
	StatusFailed    Status = "failed"
)

// Thresholds gate opportunity validation.
type Thresholds struct {
	MinProfitUSD   decimal.Decimal
	MaxPriceImpact decimal.Decimal // fraction in [0,1)
}

// valid reports whether the thresholds themselves are well formed.
func (t Thresholds) valid() bool {
	if t.MaxPriceImpact.IsNegative() {
		return false
	}
	return t.MaxPriceImpact.LessThan(decimal.NewFromInt(1))
}

// Opportunity is a candidate arbitrage trade. Everything except Status is
// fixed at creation; the discovering component owns it until it is handed to
// the execution manager, which owns the Executing -> terminal transition.
type Opportunity struct {
	ID          string
	SourceVenue string
	DestVenue   string
	TokenPath   []common.Address // >= 2 entries; first == last for a round trip
	AmountIn    *big.Int         // base units
	AmountOut   *big.Int         // base units
	ProfitUSD   decimal.Decimal
	GasCostUSD  decimal.Decimal
	PriceImpact decimal.Decimal // fraction in [0,1)
	CreatedAt   time.Time
	Details     map[string]string

	status Status
}

// NewOpportunity creates a Ready opportunity, enforcing the structural
// invariants.
func NewOpportunity(id, sourceVenue, destVenue string, tokenPath []common.Address, amountIn, amountOut *big.Int, profitUSD, gasCostUSD, priceImpact decimal.Decimal) (*Opportunity, error) {
	if len(tokenPath) < 2 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("token path needs at least 2 entries, got %d", len(tokenPath))))
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amount in must be positive"))
	}

	return &Opportunity{
		ID:          id,
		SourceVenue: sourceVenue,
		DestVenue:   destVenue,
		TokenPath:   tokenPath,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		ProfitUSD:   profitUSD,
		GasCostUSD:  gasCostUSD,
		PriceImpact: priceImpact,
		CreatedAt:   time.Now(),
		Details:     make(map[string]string),
		status:      StatusReady,
	}, nil
}

// Status returns the current lifecycle state.
func (o *Opportunity) Status() Status {
	return o.status
}

// TransitionTo advances the lifecycle. Only forward transitions are allowed.
func (o *Opportunity) TransitionTo(next Status) error {
	allowed := false
	switch o.status {
	case StatusReady:
		allowed = next == StatusExecuting
	case StatusExecuting:
		allowed = next == StatusExecuted || next == StatusFailed
	}

	if !allowed {
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("cannot transition opportunity from %s to %s", o.status, next)))
	}

	o.status = next
	return nil
}

// NetProfit is profit minus gas cost in quote currency; may be negative.
func (o *Opportunity) NetProfit() decimal.Decimal {
	return o.ProfitUSD.Sub(o.GasCostUSD)
}

// IsProfitable reports whether net profit meets the floor.
func (o *Opportunity) IsProfitable(minProfit decimal.Decimal) bool {
	return o.NetProfit().GreaterThanOrEqual(minProfit)
}

// Validate is the composite execution gate: net profit above the floor,
// price impact below the cap, and status still Ready. Total: malformed
// thresholds yield false, never an error; callers distinguish the cases by
// logging only.
func (o *Opportunity) Validate(thresholds Thresholds) bool {
	if !thresholds.valid() {
		return false
	}
	if o.status != StatusReady {
		return false
	}
	if !o.IsProfitable(thresholds.MinProfitUSD) {
		return false
	}
	return o.PriceImpact.LessThanOrEqual(thresholds.MaxPriceImpact)
}
