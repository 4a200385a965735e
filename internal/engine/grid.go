package engine

import (
	"fmt"
	"math"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/pkg/utils"
)

// MaxGridCells bounds the candidate lattice of a single heatmap
const MaxGridCells = 10000

// GenerateGrid lays a square lattice of spacing gridSizeKm, anchored on the
// center, and keeps the cells within radiusKm. The center cell is always
// included. Longitudinal spacing uses the flat 111 km/degree rule regardless
// of latitude.
func GenerateGrid(center domain.Coordinate, radiusKm, gridSizeKm float64) ([]GridCell, error) {
	if !(gridSizeKm > 0) || math.IsInf(gridSizeKm, 0) {
		return nil, fmt.Errorf("engine: grid size must be positive, got %v: %w", gridSizeKm, domain.ErrInvalidInput)
	}
	if !(radiusKm >= 0) || math.IsInf(radiusKm, 0) {
		return nil, fmt.Errorf("engine: radius must be non-negative, got %v: %w", radiusKm, domain.ErrInvalidInput)
	}
	if !center.Valid() {
		return nil, fmt.Errorf("engine: invalid grid center %s: %w", center, domain.ErrInvalidInput)
	}

	n := int(math.Floor(radiusKm / gridSizeKm))
	side := 2*n + 1
	if side > MaxGridCells || side*side > MaxGridCells {
		return nil, fmt.Errorf("engine: grid of %dx%d cells exceeds %d: %w", side, side, MaxGridCells, domain.ErrInvalidInput)
	}

	step := utils.KmToDegrees(gridSizeKm)
	cells := make([]GridCell, 0, side*side)
	for i := -n; i <= n; i++ {
		for j := -n; j <= n; j++ {
			c := domain.Coordinate{
				Lat: center.Lat + float64(i)*step,
				Lng: center.Lng + float64(j)*step,
			}
			d := DistanceKm(center, c)
			if d <= radiusKm {
				cells = append(cells, GridCell{Coordinate: c, DistanceKm: d})
			}
		}
	}
	return cells, nil
}
