package service

import (
	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/domain"
)

// DataRepository is re-exported from domain for convenience
type DataRepository = domain.DataRepository

// operationSeed picks the generator seed for one operation: the request's,
// else the configured one, else the clock.
func operationSeed(requested, configured int64, clk clock.Clock) int64 {
	switch {
	case requested != 0:
		return requested
	case configured != 0:
		return configured
	default:
		return clk.Now().UnixNano()
	}
}
