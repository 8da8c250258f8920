package store

import "errors"

var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrGuestRoleProtected = errors.New("guest role cannot be deleted")
	ErrRequestNotFound    = errors.New("role request not found")
	ErrUserNotFound       = errors.New("user not found")
)
