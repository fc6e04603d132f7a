package provider

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// UserRejectedCode is the EIP-1193 error code for a request the user declined.
const UserRejectedCode = 4001

// IsUserRejection reports whether err says the user declined a permission
// prompt. Wallets disagree on how they signal this, so three forms are
// accepted: ErrUserRejected, a JSON-RPC error with code 4001, or any error
// whose message mentions "rejected".
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gateerr.ErrUserRejected) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == UserRejectedCode {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rejected")
}

// codedError is a JSON-RPC error carrying an explicit code.
type codedError struct {
	code int
	msg  string
}

func (e *codedError) Error() string  { return e.msg }
func (e *codedError) ErrorCode() int { return e.code }

// Compile-time interface check
var _ rpc.Error = (*codedError)(nil)
