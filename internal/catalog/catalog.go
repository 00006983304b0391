// Package catalog stores points of interest in SQL and turns them into
// compass pins.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/compass/internal/geo"
	"github.com/OCAP2/compass/pkg/compass"
	"github.com/OCAP2/compass/pkg/core"
	"github.com/OCAP2/compass/pkg/pins"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PointOfInterest is one catalog entry. Positions are either normalized map
// coordinates (X, Y) or, when Geographic is set, WGS84 Lon/Lat projected
// through the map's extent.
type PointOfInterest struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt  time.Time `json:"createdAt"`
	MapID      string    `json:"mapId" gorm:"index:idx_poi_map_type;size:64;not null"`
	PinType    string    `json:"pinType" gorm:"index:idx_poi_map_type;size:64;not null"`
	Tag        string    `json:"tag" gorm:"size:128"`
	Name       string    `json:"name" gorm:"size:256"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Geographic bool      `json:"geographic" gorm:"default:false"`
	Lon        float64   `json:"lon"`
	Lat        float64   `json:"lat"`
	// Payload is a JSON array handed to the pin verbatim
	Payload datatypes.JSON `json:"payload"`
}

func (*PointOfInterest) TableName() string {
	return "points_of_interest"
}

// MapExtent is the WGS84 rectangle covered by a map
type MapExtent struct {
	MapID  string  `json:"mapId" gorm:"primarykey;size:64"`
	MinLon float64 `json:"minLon"`
	MinLat float64 `json:"minLat"`
	MaxLon float64 `json:"maxLon"`
	MaxLat float64 `json:"maxLat"`
}

func (*MapExtent) TableName() string {
	return "map_extents"
}

// GeographicPoint builds a point placed by a "long,lat" string.
func GeographicPoint(mapID, pinType, name, coords string) (PointOfInterest, error) {
	lon, lat, err := geo.ParseLonLat(coords)
	if err != nil {
		return PointOfInterest{}, fmt.Errorf("%s %q: %w", pinType, name, err)
	}
	return PointOfInterest{
		MapID:      mapID,
		PinType:    pinType,
		Name:       name,
		Geographic: true,
		Lon:        lon,
		Lat:        lat,
	}, nil
}

// Models lists the tables the catalog migrates
var Models = []any{&PointOfInterest{}, &MapExtent{}}

// ErrNoExtent is returned when geographic points exist for a map without an
// extent.
var ErrNoExtent = errors.New("map has no extent")

// Catalog reads and writes points of interest.
type Catalog struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New migrates the catalog schema on db.
func New(db *gorm.DB, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog schema: %w", err)
	}
	return &Catalog{db: db, logger: logger.With("component", "catalog")}, nil
}

// Add stores points in one batch.
func (c *Catalog) Add(ctx context.Context, points ...PointOfInterest) error {
	if len(points) == 0 {
		return nil
	}
	if err := c.db.WithContext(ctx).Create(&points).Error; err != nil {
		return fmt.Errorf("failed to insert points of interest: %w", err)
	}
	return nil
}

// SetExtent creates or replaces the extent of a map.
func (c *Catalog) SetExtent(ctx context.Context, e MapExtent) error {
	if _, err := geo.NewExtent(e.MinLon, e.MinLat, e.MaxLon, e.MaxLat); err != nil {
		return fmt.Errorf("map %s: %w", e.MapID, err)
	}
	if err := c.db.WithContext(ctx).Save(&e).Error; err != nil {
		return fmt.Errorf("failed to save extent for %s: %w", e.MapID, err)
	}
	return nil
}

// Extent returns the projected extent of mapID.
func (c *Catalog) Extent(ctx context.Context, mapID string) (geo.Extent, error) {
	var e MapExtent
	err := c.db.WithContext(ctx).Where("map_id = ?", mapID).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return geo.Extent{}, fmt.Errorf("%s: %w", mapID, ErrNoExtent)
	}
	if err != nil {
		return geo.Extent{}, err
	}
	return geo.NewExtent(e.MinLon, e.MinLat, e.MaxLon, e.MaxLat)
}

// Load returns the points of one type on one map in insertion order.
func (c *Catalog) Load(ctx context.Context, mapID, pinType string) ([]PointOfInterest, error) {
	var points []PointOfInterest
	err := c.db.WithContext(ctx).
		Where("map_id = ? AND pin_type = ?", mapID, pinType).
		Order("id").
		Find(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s pins for %s: %w", pinType, mapID, err)
	}
	return points, nil
}

// Delete removes every point of pinType on mapID.
func (c *Catalog) Delete(ctx context.Context, mapID, pinType string) (int64, error) {
	res := c.db.WithContext(ctx).
		Where("map_id = ? AND pin_type = ?", mapID, pinType).
		Delete(&PointOfInterest{})
	return res.RowsAffected, res.Error
}

// Producer returns a compass producer creating pins of pinType from the
// points stored for the map reported by mapID. Load errors are logged and
// leave the type without pins.
func (c *Catalog) Producer(pinType string, mapID func() string) compass.Producer {
	return func(m *pins.Manager) {
		id := mapID()
		ctx := context.Background()

		points, err := c.Load(ctx, id, pinType)
		if err != nil {
			c.logger.Warn("catalog load failed", "pinType", pinType, "mapId", id, "error", err)
			return
		}

		var extent *geo.Extent
		for _, p := range points {
			x, y := p.X, p.Y
			if p.Geographic {
				if extent == nil {
					e, err := c.Extent(ctx, id)
					if err != nil {
						c.logger.Warn("geographic pins skipped", "pinType", pinType, "mapId", id, "error", err)
						return
					}
					extent = &e
				}
				var ok bool
				x, y, ok = extent.Normalize(p.Lon, p.Lat)
				if !ok {
					c.logger.Debug("point outside map extent", "id", p.ID, "mapId", id)
					continue
				}
			}
			m.CreatePin(pinType, core.Tag(p.Tag), x, y, p.Name, decodePayload(p.Payload)...)
		}
	}
}

func decodePayload(raw datatypes.JSON) []any {
	if len(raw) == 0 {
		return nil
	}
	var payload []any
	if err := json.Unmarshal(raw, &payload); err != nil {
		// a scalar or object payload is passed as a single value
		var v any
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return []any{v}
	}
	return payload
}
