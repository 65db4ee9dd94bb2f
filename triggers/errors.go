package triggers

import "errors"

var (
	ErrNotFound   = errors.New("triggers: not found")
	ErrForbidden  = errors.New("triggers: forbidden")
	ErrValidation = errors.New("triggers: validation failed")
)
