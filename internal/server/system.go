package server

import (
	"relaychat/internal/dispatch"
	"relaychat/internal/proto"
	"relaychat/internal/wire"
)

// SystemComponent implements the protocol version handshake (spec §4.5): a
// client's Hello names the version it speaks; a matching version marks the
// user record enabled, and a mismatch is answered with InvalidProtocolVersion
// and drops the connection. The other components do not check whether a
// Hello has completed. It carries no state of its own; one instance is
// shared across every Session.
type SystemComponent struct{}

func NewSystemComponent() *SystemComponent { return &SystemComponent{} }

func (c *SystemComponent) ComponentID() proto.ComponentID { return proto.ComponentSystem }

func (c *SystemComponent) OnInit(s *dispatch.Session) error { return nil }
func (c *SystemComponent) OnShutdown(s *dispatch.Session)   {}
func (c *SystemComponent) OnConnect(s *dispatch.Session)    {}
func (c *SystemComponent) OnDisconnect(s *dispatch.Session) {}

func (c *SystemComponent) HandleFrame(s *dispatch.Session, msgID proto.MessageID, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	if msgID != proto.MsgHello {
		return dispatch.Fatal, nil
	}

	version, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	reply := s.NewPayload()
	if version != proto.Version {
		reply.WriteUInt16(uint16(proto.InvalidProtocolVersion))
		_ = s.Send(proto.ComponentSystem, proto.MsgHelloComplete, reply)
		return dispatch.Fatal, nil
	}

	if rec := recordFrom(s); rec != nil {
		rec.setEnabled(true)
	}

	reply.WriteUInt16(uint16(proto.Ok))
	return dispatch.Accepted, s.Send(proto.ComponentSystem, proto.MsgHelloComplete, reply)
}
