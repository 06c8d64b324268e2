package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General
	CodeRequiredField:      "Required field is missing",
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidState:       "Invalid state for this operation",
	CodeConfigurationError: "Configuration error",
	CodeServiceTimeout:     "Service request timeout",
	CodeRateLimitExceeded:  "Rate limit exceeded",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	// Chain client
	CodeInvalidAddress:    "Address failed checksum validation",
	CodeInterfaceNotFound: "Contract interface not found",
	CodeConnectionError:   "Failed to connect to chain node",
	CodeEstimationError:   "Gas estimation failed",
	CodeBatchCallError:    "Batched multicall failed",
	CodeBlockNotFound:     "Block not found",
	CodeRPCError:          "Chain RPC call failed",
	CodeChainIDMismatch:   "Node chain id does not match configuration",

	// Pricing
	CodeUnsupportedVenue:      "Unknown exchange venue",
	CodeStaleRead:             "Pool state read is stale or uninitialized",
	CodePrecisionOverflow:     "Price conversion exceeded precision bounds",
	CodeUnsupportedOperation:  "Amount calculation not mapped for this venue",
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodeContractCallFailed:    "Smart contract call failed",
	CodeQuoteFailed:           "Failed to compute quote",

	// Execution
	CodeNotInitialized:  "Execution manager not initialized",
	CodeSigningError:    "Transaction signing failed",
	CodeSubmissionError: "Transaction submission failed",
	CodeNonceError:      "Nonce assignment failed",

	// Circuit breaker
	CodeCircuitOpen: "Circuit breaker is open",
}
