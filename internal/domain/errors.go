package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRecord   = errors.New("invalid market record")
	ErrAdapterDisabled = errors.New("adapter disabled")
	ErrNoUsableConfig  = errors.New("no usable configuration")
)
