package app

import "errors"

var (
	// ErrInvalidID indicates a syntactically malformed record identifier.
	ErrInvalidID = errors.New("invalid id")
	// ErrNotFound indicates no matching record exists.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates a request parameter outside its allowed set.
	ErrInvalidArgument = errors.New("invalid argument")
)
