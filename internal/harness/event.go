package harness

import (
	"net"

	"deedles.dev/thing/internal/compositor"
	"deedles.dev/ximage/geom"
)

// Event is a message to the compositor's goroutine.
type Event interface {
	harnessEvent()
}

// Exit stops the compositor.
type Exit struct{}

// NewClient hands a connected client socket to the compositor.
// ClientID is the caller's name for the client, used by PositionWindow.
type NewClient struct {
	Conn     *net.UnixConn
	ClientID int32
}

// PositionWindow moves the window whose surface has the given protocol
// ID in the given client to a location in the global space.
type PositionWindow struct {
	ClientID int32
	Surface  uint32
	Location geom.Point[int]
}

type NewPointer struct {
	DeviceID uint32
}

type PointerMoveAbsolute struct {
	DeviceID uint32
	Location geom.Point[float64]
}

type PointerMoveRelative struct {
	DeviceID uint32
	Delta    geom.Point[float64]
}

type PointerButtonDown struct {
	DeviceID uint32
	Button   int32
}

type PointerButtonUp struct {
	DeviceID uint32
	Button   int32
}

type NewKeyboard struct {
	DeviceID uint32
}

type KeyDown struct {
	DeviceID uint32
	Code     uint32
}

type KeyUp struct {
	DeviceID uint32
	Code     uint32
}

type do struct {
	f    func(*compositor.Compositor)
	done chan struct{}
}

func (Exit) harnessEvent()                {}
func (NewClient) harnessEvent()           {}
func (PositionWindow) harnessEvent()      {}
func (NewPointer) harnessEvent()          {}
func (PointerMoveAbsolute) harnessEvent() {}
func (PointerMoveRelative) harnessEvent() {}
func (PointerButtonDown) harnessEvent()   {}
func (PointerButtonUp) harnessEvent()     {}
func (NewKeyboard) harnessEvent()         {}
func (KeyDown) harnessEvent()             {}
func (KeyUp) harnessEvent()               {}
func (do) harnessEvent()                  {}
