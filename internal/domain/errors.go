package domain

import "errors"

// Business outcomes. Handlers map these to success:false responses;
// anything else is a server error.
var (
	ErrDuplicateUser         = errors.New("username already exists")
	ErrNotFound              = errors.New("user not found")
	ErrInvalidCredential     = errors.New("invalid credential")
	ErrEmailNotFound         = errors.New("email not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)
