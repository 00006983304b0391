package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/OCAP2/compass/internal/catalog"
	"gorm.io/datatypes"
)

// demoLayouts is written next to the config when no layouts file exists.
const demoLayouts = `types:
  - name: chest
    maxDistance: 0.05
    scale: 0.75
    effect:
      name: tint
      color: [1, 0.8, 0.2]
  - name: skyshard
    maxDistance: 0.08
    effect:
      name: highlight
  - name: wayshrine
    maxDistance: 0.12
    fov: 1.2
`

// seedCatalog fills the catalog with random points on every demo map, plus
// a handful of geographic wayshrines for glenumbra.
func seedCatalog(ctx context.Context, c *catalog.Catalog, perType int) error {
	rng := rand.New(rand.NewPCG(1, 2))

	var points []catalog.PointOfInterest
	for _, m := range demoMaps {
		for _, pinType := range []string{"chest", "skyshard"} {
			if _, err := c.Delete(ctx, m.id, pinType); err != nil {
				return err
			}
			for i := 0; i < perType; i++ {
				points = append(points, catalog.PointOfInterest{
					MapID:   m.id,
					PinType: pinType,
					Tag:     fmt.Sprintf("%s-%s-%d", m.id, pinType, i),
					Name:    fmt.Sprintf("%s %d", pinType, i),
					X:       rng.Float64(),
					Y:       rng.Float64(),
					Payload: datatypes.JSON(fmt.Sprintf(`[%d]`, i)),
				})
			}
		}
	}

	if err := c.SetExtent(ctx, catalog.MapExtent{
		MapID: "glenumbra", MinLon: -4.5, MinLat: 55.5, MaxLon: -3.5, MaxLat: 56.2,
	}); err != nil {
		return err
	}
	if _, err := c.Delete(ctx, "glenumbra", "wayshrine"); err != nil {
		return err
	}
	shrines := []struct {
		name, coords string
	}{
		{"Daggerfall", "-4.25,55.86"},
		{"Lion Guard Redoubt", "-3.9,55.95"},
		{"Wyrd Tree", "-4.05,56.1"},
		{"Crosswych", "-3.7,55.6"},
	}
	for _, s := range shrines {
		p, err := catalog.GeographicPoint("glenumbra", "wayshrine", s.name, s.coords)
		if err != nil {
			return err
		}
		points = append(points, p)
	}

	return c.Add(ctx, points...)
}
