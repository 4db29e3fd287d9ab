package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrGateway    = errors.New("payment gateway error")
	ErrConflict   = errors.New("conflict")

	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrValidation)
)
