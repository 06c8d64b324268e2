// Package univ2 implements pool reading and swap math for constant-product pairs.
package univ2

// Minimal pair ABI: the reader only needs reserves.
const PairABI = `[{"constant":true,"inputs":[],"name":"getReserves","outputs":[{"internalType":"uint112","name":"_reserve0","type":"uint112"},{"internalType":"uint112","name":"_reserve1","type":"uint112"},{"internalType":"uint32","name":"_blockTimestampLast","type":"uint32"}],"payable":false,"stateMutability":"view","type":"function"}]`

// Swap fee in parts per thousand retained by the pool: 0.3%.
const (
	feeNumerator   = 997
	feeDenominator = 1000
)
