package domain

import "errors"

// Failures from optional collaborators (geocoding, routing, backend scoring)
// are substituted with synthetic results and never reach the caller. Only
// ErrInvalidInput and ErrNoValidRoutePoints are surfaced.
var (
	ErrGeocodeNotFound          = errors.New("location could not be geocoded")
	ErrRouteProviderUnavailable = errors.New("route provider unavailable")
	ErrBackendUnavailable       = errors.New("risk backend unavailable")
	ErrInvalidInput             = errors.New("invalid input")
	ErrNoValidRoutePoints       = errors.New("no valid route points")
)
