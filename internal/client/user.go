package client

import (
	"context"

	"relaychat/internal/dispatch"
	"relaychat/internal/event"
	"relaychat/internal/proto"
	"relaychat/internal/wire"
)

// IdentifyResult is the outcome of a completed Identify call.
type IdentifyResult struct {
	Result   proto.Result
	Username string
	Hostname string
}

// DirectMessage is the payload of an incoming unsolicited User/SendMessage.
type DirectMessage struct {
	From     string
	Hostname string
	Text     string
}

type sendMessageResult struct {
	result proto.Result
	target string
	text   string
}

// UserComponent drives identification and direct messaging (spec §4.6) from
// the client side, and fans incoming direct messages out through OnMessage.
type UserComponent struct {
	identifyPending pending[IdentifyResult]
	sendPending     pending[sendMessageResult]

	// OnMessage fires once per incoming direct message, with a single
	// DirectMessage argument.
	OnMessage event.Event
}

func NewUserComponent() *UserComponent { return &UserComponent{} }

func (c *UserComponent) ComponentID() proto.ComponentID { return proto.ComponentUser }

func (c *UserComponent) OnInit(s *dispatch.Session) error { return nil }
func (c *UserComponent) OnShutdown(s *dispatch.Session)   {}
func (c *UserComponent) OnConnect(s *dispatch.Session)    {}
func (c *UserComponent) OnDisconnect(s *dispatch.Session) {}

func (c *UserComponent) HandleFrame(s *dispatch.Session, msgID proto.MessageID, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	switch msgID {
	case proto.MsgIdentifyComplete:
		return c.handleIdentifyComplete(body)
	case proto.MsgUserSendMessageReply:
		return c.handleSendMessageReply(body)
	case proto.MsgUserSendMessage:
		return c.handleIncomingMessage(body)
	default:
		return dispatch.Fatal, nil
	}
}

func (c *UserComponent) handleIdentifyComplete(body *wire.TypedBuffer) (dispatch.Outcome, error) {
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	username, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	hostname, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	c.identifyPending.resolve(IdentifyResult{Result: proto.Result(result), Username: username, Hostname: hostname})
	return dispatch.Accepted, nil
}

func (c *UserComponent) handleSendMessageReply(body *wire.TypedBuffer) (dispatch.Outcome, error) {
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	target, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	text, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	c.sendPending.resolve(sendMessageResult{result: proto.Result(result), target: target, text: text})
	return dispatch.Accepted, nil
}

func (c *UserComponent) handleIncomingMessage(body *wire.TypedBuffer) (dispatch.Outcome, error) {
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	if proto.Result(result) != proto.MessageSent {
		return dispatch.Fatal, nil
	}
	from, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	hostname, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	text, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	c.OnMessage.Fire(DirectMessage{From: from, Hostname: hostname, Text: text})
	return dispatch.Accepted, nil
}

// Identify requests username as this connection's identity and blocks for
// the server's verdict.
func (c *UserComponent) Identify(ctx context.Context, s *dispatch.Session, username string) (IdentifyResult, error) {
	ch := c.identifyPending.begin()
	body := s.NewPayload()
	body.WriteString(username)
	if err := s.Send(proto.ComponentUser, proto.MsgIdentify, body); err != nil {
		return IdentifyResult{}, err
	}
	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		return IdentifyResult{}, ctx.Err()
	}
}

// SendMessage direct-messages target and blocks for the delivery result.
func (c *UserComponent) SendMessage(ctx context.Context, s *dispatch.Session, target, text string) (proto.Result, error) {
	ch := c.sendPending.begin()
	body := s.NewPayload()
	body.WriteString(target)
	body.WriteString(text)
	if err := s.Send(proto.ComponentUser, proto.MsgUserSendMessage, body); err != nil {
		return 0, err
	}
	select {
	case r := <-ch:
		return r.result, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
