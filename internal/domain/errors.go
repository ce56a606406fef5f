package domain

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument returned for calls with arguments violating the contract.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedInput returned when statement or extra info values can't be parsed.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidSubscription returned when an auto-invest subscription is misconfigured.
	ErrInvalidSubscription = errors.New("invalid auto-invest subscription")
)
