package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField      Code = "REQUIRED_FIELD"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Chain client error codes
const (
	CodeInvalidAddress    Code = "INVALID_ADDRESS"
	CodeInterfaceNotFound Code = "INTERFACE_NOT_FOUND"
	CodeConnectionError   Code = "CONNECTION_ERROR"
	CodeEstimationError   Code = "ESTIMATION_ERROR"
	CodeBatchCallError    Code = "BATCH_CALL_ERROR"
	CodeBlockNotFound     Code = "BLOCK_NOT_FOUND"
	CodeRPCError          Code = "RPC_ERROR"
	CodeChainIDMismatch   Code = "CHAIN_ID_MISMATCH"
)

// Pricing error codes
const (
	CodeUnsupportedVenue      Code = "UNSUPPORTED_VENUE"
	CodeStaleRead             Code = "STALE_READ"
	CodePrecisionOverflow     Code = "PRECISION_OVERFLOW"
	CodeUnsupportedOperation  Code = "UNSUPPORTED_OPERATION"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeContractCallFailed    Code = "CONTRACT_CALL_FAILED"
	CodeQuoteFailed           Code = "QUOTE_FAILED"
)

// Execution error codes
const (
	CodeNotInitialized  Code = "NOT_INITIALIZED"
	CodeSigningError    Code = "SIGNING_ERROR"
	CodeSubmissionError Code = "SUBMISSION_ERROR"
	CodeNonceError      Code = "NONCE_ERROR"
)

// Circuit breaker error codes
const (
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
