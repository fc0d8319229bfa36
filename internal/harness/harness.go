// Package harness runs a compositor on its own goroutine and drives it
// with messages sent over a channel. It exists for integration test
// suites that inject input and clients from another thread.
package harness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"deedles.dev/thing/internal/compositor"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrStopped = errors.New("harness stopped")

// Runtime is the protocol runtime that the harness's compositor talks
// to clients through.
type Runtime interface {
	SocketName() string
	Pointer() wl.PointerSink
	Keyboard() wl.KeyboardSink

	// Attach is called on the compositor's goroutine before any event
	// is handled so that the runtime can route client requests to c.
	Attach(c *compositor.Compositor)

	// InsertClient hands an already connected client socket to the
	// runtime.
	InsertClient(conn *net.UnixConn) (wl.ClientID, error)

	// Flush sends buffered events to every client.
	Flush()
}

type Config struct {
	Runtime       Runtime
	Options       compositor.Options
	Output        wl.Output
	FrameInterval time.Duration
}

func DefaultConfig(rt Runtime) Config {
	return Config{
		Runtime: rt,
		Options: compositor.DefaultOptions(),
		Output: wl.Output{
			Name:     "harness",
			Geometry: geom.Rt(0, 0, 800, 600),
			Scale:    1,
		},
		FrameInterval: 16 * time.Millisecond,
	}
}

type Handle struct {
	events chan Event
	done   chan struct{}
	g      *errgroup.Group
}

// Start runs a new compositor on a worker goroutine. It runs until Stop
// is called, an Exit event is sent or ctx is canceled.
func Start(ctx context.Context, config Config) (*Handle, error) {
	if config.Runtime == nil {
		return nil, fmt.Errorf("start harness: no runtime")
	}
	if config.FrameInterval <= 0 {
		return nil, fmt.Errorf("start harness: invalid frame interval %v", config.FrameInterval)
	}

	g, ctx := errgroup.WithContext(ctx)
	h := Handle{
		events: make(chan Event),
		done:   make(chan struct{}),
		g:      g,
	}

	ready := make(chan error, 1)
	g.Go(func() error {
		defer close(h.done)
		return h.run(ctx, config, ready)
	})

	err := <-ready
	if err != nil {
		g.Wait()
		return nil, err
	}
	return &h, nil
}

func (h *Handle) run(ctx context.Context, config Config, ready chan<- error) error {
	rt := config.Runtime

	c := compositor.New(config.Options, rt.Pointer(), rt.Keyboard())
	out := config.Output
	c.MapOutput(&out)
	rt.Attach(c)

	err := c.PublishSocket(rt.SocketName())
	if err != nil {
		ready <- fmt.Errorf("publish socket: %w", err)
		return err
	}
	close(ready)

	l := loop{
		c:       c,
		rt:      rt,
		clients: make(map[int32]wl.ClientID),
		start:   time.Now(),
	}

	tick := time.NewTicker(config.FrameInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case now := <-tick.C:
			c.Frame(now)
			rt.Flush()

		case ev := <-h.events:
			if _, ok := ev.(Exit); ok {
				logrus.Debug("harness exiting")
				return nil
			}
			l.handle(ev)
			rt.Flush()
		}
	}
}

// Send delivers ev to the compositor's goroutine. It returns ErrStopped
// if the compositor isn't running anymore.
func (h *Handle) Send(ev Event) error {
	select {
	case h.events <- ev:
		return nil
	case <-h.done:
		return ErrStopped
	}
}

// Do runs f on the compositor's goroutine and waits for it to return.
func (h *Handle) Do(f func(*compositor.Compositor)) error {
	done := make(chan struct{})
	err := h.Send(do{f: f, done: done})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-h.done:
		return ErrStopped
	}
}

// Stop asks the compositor to exit and waits for it to do so.
func (h *Handle) Stop() error {
	err := h.Send(Exit{})
	if (err != nil) && !errors.Is(err, ErrStopped) {
		return err
	}
	return h.g.Wait()
}

type loop struct {
	c       *compositor.Compositor
	rt      Runtime
	clients map[int32]wl.ClientID
	start   time.Time
}

func (l *loop) now() uint32 {
	return uint32(time.Since(l.start).Milliseconds())
}

func (l *loop) handle(ev Event) {
	switch ev := ev.(type) {
	case do:
		ev.f(l.c)
		close(ev.done)

	case NewClient:
		id, err := l.rt.InsertClient(ev.Conn)
		if err != nil {
			logrus.WithField("client", ev.ClientID).WithError(err).Warn("insert client")
			return
		}
		l.clients[ev.ClientID] = id

	case PositionWindow:
		l.positionWindow(ev)

	case NewPointer, NewKeyboard:
		// Devices need no setup.

	case PointerMoveAbsolute:
		l.c.MovePointer(ev.Location, l.now())

	case PointerMoveRelative:
		l.c.ProcessInput(input.PointerMotionEvent{Delta: ev.Delta, Time: l.now()})

	case PointerButtonDown:
		l.c.ProcessInput(input.PointerButtonEvent{
			Button: input.Button(ev.Button),
			State:  input.ButtonPressed,
			Time:   l.now(),
		})

	case PointerButtonUp:
		l.c.ProcessInput(input.PointerButtonEvent{
			Button: input.Button(ev.Button),
			State:  input.ButtonReleased,
			Time:   l.now(),
		})

	case KeyDown:
		l.c.ProcessInput(input.KeyboardKeyEvent{Code: ev.Code, State: input.KeyPressed, Time: l.now()})

	case KeyUp:
		l.c.ProcessInput(input.KeyboardKeyEvent{Code: ev.Code, State: input.KeyReleased, Time: l.now()})

	default:
		logrus.WithField("event", fmt.Sprintf("%T", ev)).Warn("unknown harness event")
	}
}

// positionWindow maps the element whose surface the given client knows
// by ev.Surface at ev.Location without activating it.
func (l *loop) positionWindow(ev PositionWindow) {
	client, ok := l.clients[ev.ClientID]
	if !ok {
		logrus.WithField("client", ev.ClientID).Debug("position window for unknown client")
		return
	}

	space := l.c.Space()
	for _, el := range space.Elements() {
		s := el.Surface()
		if (s == nil) || (s.Client() != client) || (s.ProtocolID() != ev.Surface) {
			continue
		}
		space.Map(el, ev.Location, false)
		return
	}

	logrus.WithFields(logrus.Fields{
		"client":  ev.ClientID,
		"surface": ev.Surface,
	}).Debug("position window for unknown surface")
}
