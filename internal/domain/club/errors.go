package club

import "errors"

var (
	ErrClubNotFound = errors.New("club not found")
)
