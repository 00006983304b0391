package main

import (
	"fmt"
	"image/color"
	"time"

	"github.com/OCAP2/compass/internal/monitor"
	"github.com/OCAP2/compass/pkg/compass"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	screenWidth  = 800
	screenHeight = 600

	compassTop    = 20
	compassHeight = 48

	mapTop  = 100
	mapSize = 480

	turnSpeed = 0.04
	walkSpeed = 0.002
)

var (
	backgroundColor = color.RGBA{R: 24, G: 26, B: 32, A: 255}
	compassColor    = color.RGBA{R: 48, G: 44, B: 36, A: 255}
	mapColor        = color.RGBA{R: 40, G: 52, B: 40, A: 255}
	playerColor     = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	pinColor        = color.RGBA{R: 200, G: 120, B: 60, A: 255}
)

// Game implements ebiten.Game around one compass engine.
type Game struct {
	engine  *compass.Engine
	world   *world
	toolkit *toolkit
	monitor *monitor.Service
	width   float64
}

// Update handles input and drives the engine's frame callback.
// This method is called every tick (typically 60 times per second).
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		g.world.turn(turnSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		g.world.turn(-turnSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		g.world.walk(walkSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		g.world.walk(-walkSpeed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.world.nextMap()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if _, err := g.engine.Dispatch(compass.CommandRefreshPins); err != nil {
			return err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.world.frame(time.Now())
	return nil
}

// Draw renders the compass bar and a top-down view of the current map.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	g.drawCompass(screen)
	g.drawMap(screen)

	stats := g.engine.Manager().Stats()
	window := g.monitor.Snapshot()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf(
		"map %s  coefficient %.2f  pins %d  visible %d  pool %d/%d  tick %s",
		g.engine.MapID(), g.engine.Coefficient(), stats.Records, stats.Visible, stats.PoolInUse, stats.PoolSize,
		window.Average(),
	), 10, screenHeight-36)
	ebitenutil.DebugPrintAt(screen, "arrows/WASD move  M next map  R refresh pins  Esc quit", 10, screenHeight-20)
}

func (g *Game) drawCompass(screen *ebiten.Image) {
	left := (screenWidth - g.width) / 2
	vector.DrawFilledRect(screen, float32(left), compassTop, float32(g.width), compassHeight, compassColor, false)
	vector.StrokeRect(screen, float32(left), compassTop, float32(g.width), compassHeight, 1, playerColor, false)

	center := float64(screenWidth) / 2
	middle := float64(compassTop + compassHeight/2)
	for _, c := range g.toolkit.controls {
		if c.hidden {
			continue
		}
		x := center + c.offsetX - c.width/2
		y := middle - c.height/2
		vector.DrawFilledRect(screen, float32(x), float32(y), float32(c.width), float32(c.height), c.rgba(), false)
		if h := c.children["Highlight"]; !h.hidden {
			vector.StrokeRect(screen, float32(x-2), float32(y-2), float32(c.width+4), float32(c.height+4), 2, h.rgba(), false)
		}
	}
}

func (g *Game) drawMap(screen *ebiten.Image) {
	left := float32(screenWidth-mapSize) / 2
	vector.DrawFilledRect(screen, left, mapTop, mapSize, mapSize, mapColor, false)

	for _, p := range g.engine.Manager().Pins("") {
		x := left + float32(p.X*mapSize)
		y := mapTop + float32(p.Y*mapSize)
		vector.DrawFilledRect(screen, x-2, y-2, 4, 4, pinColor, false)
	}

	px := left + float32(g.world.x*mapSize)
	py := mapTop + float32(g.world.y*mapSize)
	vector.DrawFilledRect(screen, px-3, py-3, 6, 6, playerColor, false)
}

// Layout returns the game's logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func (c *control) rgba() color.RGBA {
	a := c.color[3] * c.alpha
	return color.RGBA{
		R: uint8(255 * c.color[0] * a),
		G: uint8(255 * c.color[1] * a),
		B: uint8(255 * c.color[2] * a),
		A: uint8(255 * a),
	}
}
