package member

import "errors"

var (
	ErrGuardianNotFound = errors.New("guardian not found")
	ErrChildNotFound    = errors.New("child not found")
)
