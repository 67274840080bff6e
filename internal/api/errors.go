package api

import (
	"github.com/campfirehq/campfire/internal/engine"
)

// Standard JSON-RPC error codes
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternalError  = -32603
)

// Application error codes, in the JSON-RPC server-error range
const (
	ErrNotFound     = -32004
	ErrForbidden    = -32003
	ErrInvalidState = -32009
	ErrConflict     = -32010
	ErrServerError  = -32000
)

// rpcError maps an engine error to its JSON-RPC code and message
func rpcError(err error) (int, string) {
	switch engine.KindOf(err) {
	case engine.KindNotFound:
		return ErrNotFound, "Not found"
	case engine.KindForbidden:
		return ErrForbidden, "Forbidden"
	case engine.KindInvalidState:
		return ErrInvalidState, "Invalid state"
	case engine.KindConflict:
		return ErrConflict, "Conflict"
	case engine.KindValidation:
		return ErrInvalidParams, "Invalid params"
	default:
		return ErrServerError, "Server error"
	}
}
