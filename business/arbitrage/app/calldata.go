package app

import (
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

// Router ABI, only the swap entry point the manager submits.
const routerABI = `[{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"amountOutMin","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"},{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"}]`

var (
	swapABI     abi.ABI
	swapABIOnce sync.Once
)

func mustSwapABI() abi.ABI {
	swapABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(routerABI))
		if err != nil {
			panic("router abi: " + err.Error())
		}
		swapABI = parsed
	})
	return swapABI
}

// BuildSwapCalldata encodes a swapExactTokensForTokens call for the target
// router. The deadline is an absolute unix timestamp; a transaction mined
// after it reverts on-chain.
func BuildSwapCalldata(amountIn, amountOutMin *big.Int, path []common.Address, recipient common.Address, deadline *big.Int) ([]byte, error) {
	calldata, err := mustSwapABI().Pack("swapExactTokensForTokens",
		amountIn, amountOutMin, path, recipient, deadline)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext("failed to encode swap calldata"))
	}
	return calldata, nil
}
