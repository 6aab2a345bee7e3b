package dispatch

import (
	"context"
	"net"
	"testing"
	"time"

	"relaychat/internal/proto"
	"relaychat/internal/wire"
)

// echoComponent replies to every frame it receives with the same message id
// and an empty body, and records what it saw.
type echoComponent struct {
	id          proto.ComponentID
	connected   bool
	disconnected bool
	received    []proto.MessageID
}

func (c *echoComponent) ComponentID() proto.ComponentID { return c.id }
func (c *echoComponent) OnInit(s *Session) error         { return nil }
func (c *echoComponent) OnShutdown(s *Session)           {}
func (c *echoComponent) OnConnect(s *Session)            { c.connected = true }
func (c *echoComponent) OnDisconnect(s *Session)         { c.disconnected = true }

func (c *echoComponent) HandleFrame(s *Session, msgID proto.MessageID, body *wire.TypedBuffer) (Outcome, error) {
	c.received = append(c.received, msgID)
	return Accepted, s.Send(c.id, msgID, nil)
}

func TestSessionRegisterDuplicateFails(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	s := NewSession(server, nil)

	c1 := &echoComponent{id: proto.ComponentSystem}
	c2 := &echoComponent{id: proto.ComponentSystem}

	if err := s.Register(c1); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := s.Register(c2); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestSessionDispatchRoutesByComponentID(t *testing.T) {
	server, client := net.Pipe()
	s := NewSession(server, nil)

	sys := &echoComponent{id: proto.ComponentSystem}
	usr := &echoComponent{id: proto.ComponentUser}
	if err := s.Register(sys); err != nil {
		t.Fatalf("register sys: %v", err)
	}
	if err := s.Register(usr); err != nil {
		t.Fatalf("register usr: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Run(ctx)

	frame := wire.Encode(uint8(proto.ComponentUser), 7, nil)
	if _, err := client.Write(frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, wire.HeaderSize)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := client.Read(buf); err != nil {
		t.Fatalf("read reply: %v", err)
	}

	if len(usr.received) != 1 || usr.received[0] != 7 {
		t.Fatalf("expected user component to receive message 7, got %v", usr.received)
	}
	if len(sys.received) != 0 {
		t.Fatalf("expected system component untouched, got %v", sys.received)
	}
	if !sys.connected || !usr.connected {
		t.Fatalf("expected both components to observe OnConnect")
	}

	client.Close()
	time.Sleep(50 * time.Millisecond)
	if !sys.disconnected || !usr.disconnected {
		t.Fatalf("expected both components to observe OnDisconnect after close")
	}
}

// fatalComponent always returns a Fatal outcome.
type fatalComponent struct{ id proto.ComponentID }

func (c *fatalComponent) ComponentID() proto.ComponentID { return c.id }
func (c *fatalComponent) OnInit(s *Session) error         { return nil }
func (c *fatalComponent) OnShutdown(s *Session)           {}
func (c *fatalComponent) OnConnect(s *Session)            {}
func (c *fatalComponent) OnDisconnect(s *Session)         {}
func (c *fatalComponent) HandleFrame(s *Session, msgID proto.MessageID, body *wire.TypedBuffer) (Outcome, error) {
	return Fatal, nil
}

func TestSessionDropsConnectionOnFatalOutcome(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	s := NewSession(server, nil)

	comp := &fatalComponent{id: proto.ComponentSystem}
	if err := s.Register(comp); err != nil {
		t.Fatalf("register: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()

	frame := wire.Encode(uint8(proto.ComponentSystem), 0, nil)
	client.Write(frame)

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("expected Run to return an error on Fatal outcome")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Run to return")
	}
}

func TestSessionDropsConnectionOnUnknownComponent(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	s := NewSession(server, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()

	frame := wire.Encode(uint8(proto.ComponentUser), 0, nil)
	client.Write(frame)

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("expected Run to return an error for an unregistered component")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Run to return")
	}
}

func TestSendFailsWhenNotConnected(t *testing.T) {
	server, client := net.Pipe()
	client.Close()
	s := NewSession(server, nil)
	server.Close()

	// Give Send a chance to observe the closed transport via a write error;
	// ErrNotConnected is only guaranteed once Run has completed its shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	if err := s.Send(proto.ComponentSystem, proto.MsgHello, nil); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
