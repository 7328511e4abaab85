package types

import "errors"

var (
	// ErrPermissionDenied - location or notification permission refused.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTransport - socket construction/send/receive failure.
	ErrTransport = errors.New("transport error")
	// ErrMalformedMessage - websocket frame that is not a valid location delta.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrNetworkPush - a single REST call to the backend failed.
	ErrNetworkPush = errors.New("network push failed")
	// ErrNoActiveSession - stop requested while the session is idle.
	ErrNoActiveSession = errors.New("no active sharing session")

	ErrTokenMissing      = errors.New("auth token not found, session may have expired")
	ErrTokenExpired      = errors.New("auth token expired")
	ErrKeyNotFound       = errors.New("key not found")
	ErrVendorNotInRoster = errors.New("vendor not in roster")
	ErrCircuitOpen       = errors.New("backend circuit open")
	ErrInvalidVendor     = errors.New("invalid vendor id")
	ErrInvalidRadius     = errors.New("invalid notification radius")
)
