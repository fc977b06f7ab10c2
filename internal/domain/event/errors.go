package event

import "errors"

// Raw event domain errors
var (
	ErrMissingEmployee = errors.New("event has no employee id")
	ErrInvalidWindow   = errors.New("activity window ends before it starts")
	ErrInvalidInterval = errors.New("clock interval ends before it starts")
	ErrNegativeItems   = errors.New("items count cannot be negative")
)
