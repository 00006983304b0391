// Package geo places geographic points of interest on a compass map.
//
// Points arrive as WGS84 longitude/latitude. They are projected to Web
// Mercator (EPSG:3857) and then scaled into the normalized [0,1] coordinates
// of the map extent they belong to, with y growing southwards like the
// host's map coordinates.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrInvalidExtent is returned for extents with no area
var ErrInvalidExtent = errors.New("invalid map extent")

// maxLatitude is the Web Mercator cutoff
const maxLatitude = 85.05112878

var toMercator = wgs84.EPSG().Transform(4326, 3857)

// ParseLonLat parses a "long,lat" string. Extra components such as an
// elevation are ignored.
func ParseLonLat(coords string) (lon, lat float64, err error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 {
		return 0, 0, ErrInvalidCoordinates
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates
	}
	if !validLonLat(lon, lat) {
		return 0, 0, ErrInvalidCoordinates
	}
	return lon, lat, nil
}

func validLonLat(lon, lat float64) bool {
	return !math.IsNaN(lon) && !math.IsNaN(lat) &&
		lon >= -180 && lon <= 180 &&
		lat >= -maxLatitude && lat <= maxLatitude
}

// Mercator projects a WGS84 longitude/latitude to EPSG:3857 meters.
func Mercator(lon, lat float64) geom.XY {
	x, y, _ := toMercator(lon, lat, 0)
	return geom.XY{X: x, Y: y}
}

// Extent is the geographic rectangle covered by one map, in EPSG:3857.
type Extent struct {
	min, max geom.XY
}

// NewExtent builds the extent spanned by two WGS84 corners given in any
// order.
func NewExtent(lon1, lat1, lon2, lat2 float64) (Extent, error) {
	if !validLonLat(lon1, lat1) || !validLonLat(lon2, lat2) {
		return Extent{}, fmt.Errorf("%w: corner outside WGS84 bounds", ErrInvalidExtent)
	}
	a, b := Mercator(lon1, lat1), Mercator(lon2, lat2)
	e := Extent{
		min: geom.XY{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		max: geom.XY{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
	size := e.max.Sub(e.min)
	if size.X <= 0 || size.Y <= 0 {
		return Extent{}, fmt.Errorf("%w: zero width or height", ErrInvalidExtent)
	}
	return e, nil
}

// Size returns the extent's width and height in meters
func (e Extent) Size() geom.XY {
	return e.max.Sub(e.min)
}

// Normalize maps lon/lat into the extent's normalized coordinates. ok is
// false when the point falls outside the extent.
func (e Extent) Normalize(lon, lat float64) (x, y float64, ok bool) {
	if !validLonLat(lon, lat) {
		return 0, 0, false
	}
	p := Mercator(lon, lat).Sub(e.min)
	size := e.Size()
	x = p.X / size.X
	y = 1 - p.Y/size.Y
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return x, y, false
	}
	return x, y, true
}
