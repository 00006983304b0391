package compass

import (
	"math"

	"github.com/OCAP2/compass/internal/zones"
	"github.com/OCAP2/compass/pkg/core"
)

// GetDistanceCoefficient returns the distance scale for the displayed map.
// The zone table wins when the map resolves to a zone; dungeons and subzones
// fall back to fixed factors. The result is the square root of the factor
// because visibility is tested on squared distances.
func (e *Engine) GetDistanceCoefficient() float64 {
	maps := e.deps.Maps
	if maps == nil {
		return 1
	}

	c := zones.DefaultCoefficient
	if idx, ok := maps.ZoneIndex(); ok {
		if v, ok := zones.Coefficient(idx); ok {
			c = v
		}
	} else if maps.ContentKind() == core.ContentDungeon {
		c = zones.DungeonCoefficient
	} else if maps.MapType() == core.MapTypeSubzone {
		c = zones.SubzoneCoefficient
	}
	return math.Sqrt(c)
}

// RefreshDistanceCoefficient recomputes the coefficient from the displayed
// map and hands it to the pin manager.
func (e *Engine) RefreshDistanceCoefficient() {
	e.coefficient = e.GetDistanceCoefficient()
	e.manager.SetCoefficient(e.coefficient)
	e.logger.Debug("distance coefficient refreshed", "coefficient", e.coefficient)
}

// Coefficient returns the coefficient stored by the last refresh
func (e *Engine) Coefficient() float64 {
	return e.coefficient
}
