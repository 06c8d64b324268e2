package ethereum

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

// rpcError implements the go-ethereum rpc.Error interface.
type rpcError struct {
	code int
	msg  string
}

func (e *rpcError) Error() string  { return e.msg }
func (e *rpcError) ErrorCode() int { return e.code }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperror.Code
	}{
		{
			name: "nil_error",
			err:  nil,
			want: apperror.CodeUnknownError,
		},
		{
			name: "app_error_passes_through",
			err:  apperror.New(apperror.CodeStaleRead),
			want: apperror.CodeStaleRead,
		},
		{
			name: "wrapped_app_error_passes_through",
			err:  fmt.Errorf("read pool: %w", apperror.New(apperror.CodeBatchCallError)),
			want: apperror.CodeBatchCallError,
		},
		{
			name: "deadline_exceeded",
			err:  context.DeadlineExceeded,
			want: apperror.CodeServiceTimeout,
		},
		{
			name: "context_canceled",
			err:  context.Canceled,
			want: apperror.CodeServiceTimeout,
		},
		{
			name: "rpc_parse_error",
			err:  &rpcError{code: -32700, msg: "parse error"},
			want: apperror.CodeInvalidInput,
		},
		{
			name: "rpc_invalid_params",
			err:  &rpcError{code: -32602, msg: "invalid params"},
			want: apperror.CodeInvalidInput,
		},
		{
			name: "rpc_method_not_found",
			err:  &rpcError{code: -32601, msg: "method not found"},
			want: apperror.CodeRPCError,
		},
		{
			name: "rpc_internal_error",
			err:  &rpcError{code: -32603, msg: "internal error"},
			want: apperror.CodeRPCError,
		},
		{
			name: "rpc_limit_exceeded",
			err:  &rpcError{code: -32005, msg: "limit exceeded"},
			want: apperror.CodeRateLimitExceeded,
		},
		{
			name: "connection_refused",
			err:  errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"),
			want: apperror.CodeConnectionError,
		},
		{
			name: "unexpected_eof",
			err:  errors.New("unexpected EOF"),
			want: apperror.CodeConnectionError,
		},
		{
			name: "rate_limited_text",
			err:  errors.New("429 Too Many Requests"),
			want: apperror.CodeRateLimitExceeded,
		},
		{
			name: "nonce_too_low",
			err:  errors.New("nonce too low"),
			want: apperror.CodeNonceError,
		},
		{
			name: "already_known",
			err:  errors.New("already known"),
			want: apperror.CodeNonceError,
		},
		{
			name: "insufficient_funds",
			err:  errors.New("insufficient funds for gas * price + value"),
			want: apperror.CodeSubmissionError,
		},
		{
			name: "execution_reverted",
			err:  errors.New("execution reverted: UniswapV2: K"),
			want: apperror.CodeContractCallFailed,
		},
		{
			name: "gas_allowance",
			err:  errors.New("gas required exceeds allowance (30000000)"),
			want: apperror.CodeEstimationError,
		},
		{
			name: "header_not_found",
			err:  errors.New("header not found"),
			want: apperror.CodeBlockNotFound,
		},
		{
			name: "unrecognized",
			err:  errors.New("something else entirely"),
			want: apperror.CodeUnknownError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %s, want %s", got, tt.want)
			}
		})
	}
}
