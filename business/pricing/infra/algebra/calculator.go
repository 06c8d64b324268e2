package algebra

import (
	"math/big"

	"github.com/dkrasnove/arbengine/business/pricing/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
)

// Calculator is a placeholder: Algebra's dynamic-fee swap math has not been
// mapped, and a silently wrong amount is worse than a loud failure here.
type Calculator struct{}

// NewCalculator creates the Algebra amount calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateAmounts always fails with UNSUPPORTED_OPERATION.
func (c *Calculator) CalculateAmounts(_ *domain.PoolState, _ *big.Int, _ domain.Direction) (*domain.AmountQuote, error) {
	return nil, apperror.New(apperror.CodeUnsupportedOperation,
		apperror.WithContext("algebra dynamic-fee swap math is not mapped"))
}
