package auth

import "errors"

var (
	ErrNotFound           = errors.New("auth: not found")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPendingApproval    = errors.New("auth: organization pending approval")
	ErrInactive           = errors.New("auth: identity inactive")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrSigningUnavailable = errors.New("auth: signing key unavailable")
)
