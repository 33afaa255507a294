package shared

import "errors"

var (
	ErrNotFound   = errors.New("masterdata: resource not found")
	ErrDuplicate  = errors.New("masterdata: duplicate entry")
	ErrValidation = errors.New("masterdata: validation failed")
	ErrInUse      = errors.New("masterdata: resource is referenced and cannot be removed")
	ErrInvalidID  = errors.New("masterdata: invalid id")
)
