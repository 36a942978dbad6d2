package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidReference = errors.New("referenced entity does not exist")
	ErrDuplicate        = errors.New("entity already exists")
)
