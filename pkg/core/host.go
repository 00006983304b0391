// pkg/core/host.go
package core

// Anchor is a relative point on a control
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorLeft
	AnchorRight
	AnchorTop
	AnchorBottom
)

// Pointer events a control can carry handlers for
const (
	EventMouseEnter = "OnMouseEnter"
	EventMouseExit  = "OnMouseExit"
	EventMouseUp    = "OnMouseUp"
)

// PointerEvents lists every pointer event cleared when a control changes tenant
var PointerEvents = []string{EventMouseEnter, EventMouseExit, EventMouseUp}

// Control is one visual pin owned by the host UI toolkit.
type Control interface {
	ClearAnchors()
	SetAnchor(point Anchor, relativeTo Anchor, offsetX, offsetY float64)
	SetAlpha(alpha float64)
	SetHidden(hidden bool)
	SetDimensions(width, height float64)
	SetColor(r, g, b, a float64)
	SetTexture(path string)
	// NamedChild returns nil when the control has no child of that name.
	NamedChild(name string) Control
	// SetHandler installs fn for event. A nil fn clears the handler.
	SetHandler(event string, fn func())
}

// Toolkit creates controls from a named template. Key is the pool slot the
// control will live in for the rest of the process.
type Toolkit interface {
	CreateControl(template string, key int) (Control, error)
}

// Observer reports the player state the compass is drawn for.
type Observer interface {
	// Heading returns the camera heading in radians, or false when the
	// player state is not ready yet.
	Heading() (float64, bool)
	// Position returns the player position in normalized map coordinates.
	Position() (x, y float64)
}

// ContentKind is the content classification of the displayed map
type ContentKind int

const (
	ContentOverland ContentKind = iota
	ContentDungeon
)

// MapType is the kind of the displayed map
type MapType int

const (
	MapTypeNone MapType = iota
	MapTypeZone
	MapTypeSubzone
	MapTypeWorld
)

// MapContext answers questions about the map currently displayed.
type MapContext interface {
	MapID() string
	// ZoneIndex returns false when the map does not resolve to a zone.
	ZoneIndex() (int, bool)
	ContentKind() ContentKind
	MapType() MapType
}

// MapChangeSource delivers the new map id whenever the displayed map changes.
type MapChangeSource interface {
	SubscribeMapChanged(fn func(mapID string))
}

// Scheduler drives periodic callbacks from the host frame clock.
type Scheduler interface {
	RegisterForUpdate(name string, fn func(nowMs int64))
	UnregisterForUpdate(name string)
}

// Diagnostics is a single line, human readable error channel.
type Diagnostics interface {
	Report(msg string)
}

// DiagnosticsFunc adapts a plain function to Diagnostics
type DiagnosticsFunc func(msg string)

// Report calls f(msg)
func (f DiagnosticsFunc) Report(msg string) { f(msg) }
