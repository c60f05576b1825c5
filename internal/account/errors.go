package account

import "errors"

var (
	ErrNotFound           = errors.New("account: not found")
	ErrConflict           = errors.New("account: identifier conflict")
	ErrInvalidInput       = errors.New("account: invalid input")
	ErrMissingIdentifier  = errors.New("account: missing identifier")
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	ErrAccountDisabled    = errors.New("account: account is disabled")
	ErrPermissionDenied   = errors.New("account: permission denied")
	ErrInvalidToken       = errors.New("account: invalid token")
	ErrNotImplemented     = errors.New("account: not implemented")
)
