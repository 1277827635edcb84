package auth

import "errors"

var (
	// ErrMissingToken indicates the request carried no usable bearer token.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken indicates the token failed signature or shape validation.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken indicates a well-formed token past its expiry window.
	ErrExpiredToken = errors.New("auth: token expired")
	// ErrInvalidCredentials indicates an email/password pair that did not match.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	// ErrForbidden indicates an authenticated identity denied by policy.
	ErrForbidden = errors.New("auth: forbidden")
)
