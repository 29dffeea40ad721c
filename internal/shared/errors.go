package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidOTP         = fmt.Errorf("invalid otp")

	// Store errors
	ErrNotFound = fmt.Errorf("not found")
	ErrConflict = fmt.Errorf("already exists")

	ErrArtistNotFound = fmt.Errorf("artist %w", ErrNotFound)
	ErrSongNotFound   = fmt.Errorf("song %w", ErrNotFound)
	ErrAlbumNotFound  = fmt.Errorf("album %w", ErrNotFound)
	ErrArtistExists   = fmt.Errorf("artist %w", ErrConflict)

	// Input validation errors
	ErrValidation = fmt.Errorf("invalid input")
)
