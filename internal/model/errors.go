package model

import "errors"

// Common errors used across the application
var (
	// Upstream lookups
	ErrNotFound       = errors.New("not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrTourNotFound   = errors.New("tour not found")
	ErrRoundNotFound  = errors.New("round not found")

	// Cache errors
	ErrNotCached            = errors.New("not cached")
	ErrFederationsNotLoaded = errors.New("federations not loaded")

	// Roster errors
	ErrEmptyPlayerKey = errors.New("empty player key")

	// Permission errors
	ErrNotContributor = errors.New("user is not a contributor")

	// Checkout errors
	ErrUnknownProvider     = errors.New("unknown payment provider")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidGiftDest     = errors.New("invalid gift destination")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)
