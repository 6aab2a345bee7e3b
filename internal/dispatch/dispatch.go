// Package dispatch implements the per-connection component registry and
// frame router described in spec §4.4: it feeds inbound bytes through the
// frame codec, routes each decoded frame to the single registered component
// whose id matches, and exposes framed sending back to components.
package dispatch

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"relaychat/internal/proto"
	"relaychat/internal/transport"
	"relaychat/internal/wire"
)

// Outcome is the tri-state a handler reports back to the dispatcher (spec
// §7): Accepted for a normal return (including domain rejections, which are
// conveyed entirely via the *_Complete result code, never as this outcome),
// and Fatal for framing/internal invariant violations that must drop the
// connection.
type Outcome int

const (
	Accepted Outcome = iota
	Fatal
)

// Component is one protocol subsystem. A single Component instance is
// typically shared across every connection's Session on the server side
// (it owns the cross-connection state, e.g. the channel list); on the
// client side a Session holds exactly one of each.
type Component interface {
	// ComponentID returns this component's wire id.
	ComponentID() proto.ComponentID

	// OnInit runs once, when the component is registered on a Session,
	// before the connection is active.
	OnInit(s *Session) error

	// OnShutdown runs once, when the component is deregistered.
	OnShutdown(s *Session)

	// OnConnect runs when the underlying transport connects.
	OnConnect(s *Session)

	// OnDisconnect runs when the underlying transport disconnects.
	OnDisconnect(s *Session)

	// HandleFrame processes one decoded frame addressed to this component.
	// body has already had its frame header stripped; it is the raw typed-
	// buffer payload, positioned at offset 0.
	HandleFrame(s *Session, msgID proto.MessageID, body *wire.TypedBuffer) (Outcome, error)
}

// ErrUnregisteredComponent is returned by Run, which then drops the
// connection, when a frame names a component id with nothing registered to
// handle it.
var ErrUnregisteredComponent = errors.New("dispatch: no component registered for this id")

// ErrAlreadyRegistered is returned by Register when a component with the
// same id is already present.
var ErrAlreadyRegistered = errors.New("dispatch: component already registered")

// ErrNotConnected is returned by Send when the session's transport is
// already closed.
var ErrNotConnected = errors.New("dispatch: not connected")

// Session is the per-connection registry and frame router: spec's
// "Connection session" (§3) plus "Dispatcher" (§4.4) combined, since in this
// rendering each connection owns exactly one dispatcher instance.
type Session struct {
	conn  transport.Conn
	flip  bool // true when the host's native endianness isn't big-endian
	log   *slog.Logger

	mu         sync.Mutex
	order      []proto.ComponentID
	components map[proto.ComponentID]Component

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}

	// UserRef is set by the User component on connect and read by the
	// Channel component to cross-reference identity without the two
	// components importing each other (spec §1: "cross-component
	// dependencies (channel logic must look up user identity)"). It is
	// nil until the User component's OnConnect runs.
	UserRef any
}

// NewSession wraps a connected transport in a fresh, empty Session.
func NewSession(conn transport.Conn, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		conn:       conn,
		flip:       nativeEndianNeedsFlip(),
		log:        log,
		components: make(map[proto.ComponentID]Component),
		closed:     make(chan struct{}),
	}
}

// nativeEndianNeedsFlip reports whether this host's native byte order is
// little-endian, since the wire order is fixed big-endian (spec §9).
func nativeEndianNeedsFlip() bool {
	buf := make([]byte, 2)
	binary.NativeEndian.PutUint16(buf, 1)
	return buf[0] == 1
}

// Conn returns the underlying transport connection.
func (s *Session) Conn() transport.Conn { return s.conn }

// Register adds a component to the registry, invoking its init hook first.
// It must be called before the connection is marked active (before Run).
func (s *Session) Register(c Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.ComponentID()
	if _, exists := s.components[id]; exists {
		return fmt.Errorf("%w: id=%d", ErrAlreadyRegistered, id)
	}
	if err := c.OnInit(s); err != nil {
		return err
	}
	s.components[id] = c
	s.order = append(s.order, id)
	return nil
}

// Deregister runs the component's shutdown hook and removes it.
func (s *Session) Deregister(c Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.ComponentID()
	if _, exists := s.components[id]; !exists {
		return
	}
	c.OnShutdown(s)
	delete(s.components, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Session) snapshotOrdered() []Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Component, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.components[id])
	}
	return out
}

func (s *Session) lookup(id proto.ComponentID) (Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.components[id]
	return c, ok
}

// Send frames payload and writes it to the transport. payload may be nil
// for bodies with no fields.
func (s *Session) Send(componentID proto.ComponentID, msgID proto.MessageID, payload *wire.TypedBuffer) error {
	var body []byte
	if payload != nil {
		body = payload.Bytes()
	}
	frame := wire.Encode(uint8(componentID), uint16(msgID), body)

	select {
	case <-s.closed:
		return ErrNotConnected
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	n, err := s.conn.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("dispatch: short write (%d of %d bytes)", n, len(frame))
	}
	return nil
}

// NewPayload returns an empty typed buffer using this session's wire
// endianness, ready for a component to write reply fields into.
func (s *Session) NewPayload() *wire.TypedBuffer {
	return wire.NewTypedBuffer(s.flip)
}

// Run calls every registered component's connect hook, then reads frames
// from the transport until it closes or a handler reports Fatal, then calls
// every component's disconnect hook in registration order and returns. It
// blocks until the connection ends or ctx is canceled.
func (s *Session) Run(ctx context.Context) error {
	for _, c := range s.snapshotOrdered() {
		c.OnConnect(s)
	}

	err := s.readLoop(ctx)

	for _, c := range s.snapshotOrdered() {
		c.OnDisconnect(s)
	}
	s.closeOnce.Do(func() { close(s.closed) })
	_ = s.conn.Close()

	return err
}

func (s *Session) readLoop(ctx context.Context) error {
	decoder := wire.NewDecoder()
	buf := make([]byte, 4096)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.Close()
		case <-done:
		}
	}()

	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			frames, decErr := decoder.Feed(buf[:n])
			for _, f := range frames {
				if handleErr := s.dispatchFrame(f); handleErr != nil {
					return handleErr
				}
			}
			if decErr != nil {
				s.log.Warn("malformed frame, dropping connection", "error", decErr)
				return decErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (s *Session) dispatchFrame(f wire.Frame) error {
	componentID := proto.ComponentID(f.ComponentID)
	component, ok := s.lookup(componentID)
	if !ok {
		s.log.Warn("no component registered for frame, dropping connection", "component_id", componentID)
		return fmt.Errorf("%w: id=%d", ErrUnregisteredComponent, componentID)
	}

	body := wire.NewTypedBufferFrom(f.Body, s.flip)
	outcome, err := component.HandleFrame(s, proto.MessageID(f.MessageID), body)
	if outcome == Fatal || err != nil {
		s.log.Warn("fatal handler outcome, dropping connection",
			"component_id", componentID, "message_id", f.MessageID, "error", err)
		if err == nil {
			err = fmt.Errorf("dispatch: fatal outcome from component %d message %d", componentID, f.MessageID)
		}
		return err
	}
	return nil
}
