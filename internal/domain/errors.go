package domain

import "errors"

var (
	// ErrStoreUnavailable is returned when the catalog store cannot be reached at all
	ErrStoreUnavailable = errors.New("catalog store unavailable")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidImage is returned for data that is not a supported image
	ErrInvalidImage = errors.New("invalid or unsupported image")

	// ErrImageTooLarge is returned when an upload exceeds the configured size limit
	ErrImageTooLarge = errors.New("image exceeds maximum size")

	// ErrVisionFailure is returned when the vision API request fails
	ErrVisionFailure = errors.New("vision analysis failed")
)
