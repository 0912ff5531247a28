package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrInvalidCode   = errors.New("otp invalid")
	ErrNoValidOTP    = errors.New("no valid otp")
	ErrInvalidState  = errors.New("session is not awaiting an otp")
	ErrStorage       = errors.New("storage failure")
	ErrDelivery      = errors.New("email delivery failed")
	ErrSession       = errors.New("session store failure")
	ErrRateLimited   = errors.New("rate limited")
	ErrMediaDisabled = errors.New("media storage not configured")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
