package ethereum

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

// JSON-RPC error codes emitted by common node implementations.
const (
	rpcCodeParseError     = -32700
	rpcCodeInvalidRequest = -32600
	rpcCodeMethodNotFound = -32601
	rpcCodeInvalidParams  = -32602
	rpcCodeInternalError  = -32603
	rpcCodeLimitExceeded  = -32005
)

// ClassifyError maps node and transport failures onto the stable error
// taxonomy. Unrecognized errors map to CodeUnknownError, never panic.
func ClassifyError(err error) apperror.Code {
	if err == nil {
		return apperror.CodeUnknownError
	}

	// Preserve an already-classified error.
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.CodeServiceTimeout
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case rpcCodeParseError, rpcCodeInvalidRequest, rpcCodeInvalidParams:
			return apperror.CodeInvalidInput
		case rpcCodeMethodNotFound:
			return apperror.CodeRPCError
		case rpcCodeInternalError:
			return apperror.CodeRPCError
		case rpcCodeLimitExceeded:
			return apperror.CodeRateLimitExceeded
		}
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "eof"):
		return apperror.CodeConnectionError

	case strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "rate limit"):
		return apperror.CodeRateLimitExceeded

	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "nonce too high"),
		strings.Contains(msg, "replacement transaction underpriced"),
		strings.Contains(msg, "already known"):
		return apperror.CodeNonceError

	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "transaction underpriced"):
		return apperror.CodeSubmissionError

	case strings.Contains(msg, "execution reverted"),
		strings.Contains(msg, "out of gas"):
		return apperror.CodeContractCallFailed

	case strings.Contains(msg, "gas required exceeds allowance"):
		return apperror.CodeEstimationError

	case strings.Contains(msg, "block not found"),
		strings.Contains(msg, "header not found"),
		strings.Contains(msg, "not found"):
		return apperror.CodeBlockNotFound
	}

	return apperror.CodeUnknownError
}
