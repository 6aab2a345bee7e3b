package client

import (
	"context"
	"errors"

	"relaychat/internal/dispatch"
	"relaychat/internal/proto"
	"relaychat/internal/wire"
)

// ErrRejected is returned by SystemComponent.Hello when the server's result
// code was anything other than proto.Ok. The other request methods return
// the server's result code to the caller instead of an error.
var ErrRejected = errors.New("client: request rejected")

type helloResult struct {
	result proto.Result
}

// SystemComponent drives the version handshake (spec §4.5) from the client
// side: Hello blocks until HelloComplete arrives or ctx is canceled.
type SystemComponent struct {
	pending pending[helloResult]
}

func NewSystemComponent() *SystemComponent { return &SystemComponent{} }

func (c *SystemComponent) ComponentID() proto.ComponentID { return proto.ComponentSystem }

func (c *SystemComponent) OnInit(s *dispatch.Session) error { return nil }
func (c *SystemComponent) OnShutdown(s *dispatch.Session)   {}
func (c *SystemComponent) OnConnect(s *dispatch.Session)    {}
func (c *SystemComponent) OnDisconnect(s *dispatch.Session) {}

func (c *SystemComponent) HandleFrame(s *dispatch.Session, msgID proto.MessageID, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	if msgID != proto.MsgHelloComplete {
		return dispatch.Fatal, nil
	}
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	c.pending.resolve(helloResult{result: proto.Result(result)})
	return dispatch.Accepted, nil
}

// Hello sends a Hello naming this build's protocol version and blocks for
// the server's verdict.
func (c *SystemComponent) Hello(ctx context.Context, s *dispatch.Session) error {
	ch := c.pending.begin()
	body := s.NewPayload()
	body.WriteString(proto.Version)
	if err := s.Send(proto.ComponentSystem, proto.MsgHello, body); err != nil {
		return err
	}
	select {
	case r := <-ch:
		if r.result != proto.Ok {
			return ErrRejected
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
