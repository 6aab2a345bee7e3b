package client

import (
	"context"

	"relaychat/internal/dispatch"
	"relaychat/internal/event"
	"relaychat/internal/proto"
	"relaychat/internal/wire"
)

// ChannelMember is one entry of a JoinChannel_Complete roster.
type ChannelMember struct {
	Username string
	Hostname string
	Operator bool
}

// JoinResult is the outcome of a completed Join call.
type JoinResult struct {
	Result  proto.Result
	Name    string
	Members []ChannelMember
	Bans    []string
}

// MemberEvent is the payload of every unsolicited peer-change notice that
// names a single channel and a single member (join, leave, kick, ban).
type MemberEvent struct {
	Result   proto.Result
	Channel  string
	Username string
	Hostname string
}

// OperatorEvent is the payload of an unsolicited op/deop/unban notice, which
// names only a username (no hostname, since the target may be offline by
// the time an unban fires).
type OperatorEvent struct {
	Result   proto.Result
	Channel  string
	Username string
}

// ChannelMessage is the payload of an unsolicited channel message.
type ChannelMessage struct {
	Channel  string
	Username string
	Hostname string
	Text     string
}

type completeResult struct {
	result proto.Result
	name   string
	extra  string
	extra2 string
}

// ChannelComponent drives join/leave/messaging/moderation (spec §4.8) from
// the client side and fans every unsolicited notice out through its Event
// fields.
type ChannelComponent struct {
	joinPending   pending[JoinResult]
	leavePending  pending[completeResult]
	sendPending   pending[completeResult]
	kickPending   pending[completeResult]
	banPending    pending[completeResult]
	opPending     pending[completeResult]
	deopPending   pending[completeResult]
	unbanPending  pending[completeResult]

	// OnJoin/OnLeave/OnKick/OnBan fire with a MemberEvent; OnMessage fires
	// with a ChannelMessage; OnOp/OnDeop/OnUnban fire with an OperatorEvent.
	OnJoin    event.Event
	OnLeave   event.Event
	OnMessage event.Event
	OnKick    event.Event
	OnBan     event.Event
	OnOp      event.Event
	OnDeop    event.Event
	OnUnban   event.Event
}

func NewChannelComponent() *ChannelComponent { return &ChannelComponent{} }

func (c *ChannelComponent) ComponentID() proto.ComponentID { return proto.ComponentChannel }

func (c *ChannelComponent) OnInit(s *dispatch.Session) error { return nil }
func (c *ChannelComponent) OnShutdown(s *dispatch.Session)   {}
func (c *ChannelComponent) OnConnect(s *dispatch.Session)    {}
func (c *ChannelComponent) OnDisconnect(s *dispatch.Session) {}

func (c *ChannelComponent) HandleFrame(s *dispatch.Session, msgID proto.MessageID, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	switch msgID {
	case proto.MsgJoinChannel:
		return c.handleJoinNotice(body)
	case proto.MsgJoinChannelComplete:
		return c.handleJoinComplete(body)
	case proto.MsgLeaveChannel:
		return c.handleMemberNotice(body, &c.OnLeave)
	case proto.MsgLeaveChannelComplete:
		return c.handleComplete(body, &c.leavePending, 0)
	case proto.MsgChannelSendMessage:
		return c.handleChannelMessage(body)
	case proto.MsgChannelSendMessageReply:
		return c.handleComplete(body, &c.sendPending, 1)
	case proto.MsgOpUser:
		return c.handleOperatorNotice(body, &c.OnOp)
	case proto.MsgOpUserComplete:
		return c.handleComplete(body, &c.opPending, 1)
	case proto.MsgDeopUser:
		return c.handleOperatorNotice(body, &c.OnDeop)
	case proto.MsgDeopUserComplete:
		return c.handleComplete(body, &c.deopPending, 1)
	case proto.MsgKickUser:
		return c.handleMemberNotice(body, &c.OnKick)
	case proto.MsgKickUserComplete:
		return c.handleComplete(body, &c.kickPending, 2)
	case proto.MsgBanUser:
		return c.handleMemberNotice(body, &c.OnBan)
	case proto.MsgBanUserComplete:
		return c.handleComplete(body, &c.banPending, 1)
	case proto.MsgUnbanUser:
		return c.handleOperatorNotice(body, &c.OnUnban)
	case proto.MsgUnbanUserComplete:
		return c.handleComplete(body, &c.unbanPending, 1)
	default:
		return dispatch.Fatal, nil
	}
}

func (c *ChannelComponent) handleJoinComplete(body *wire.TypedBuffer) (dispatch.Outcome, error) {
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	memberCount, err := body.ReadUInt32()
	if err != nil {
		return dispatch.Fatal, err
	}
	members := make([]ChannelMember, 0, memberCount)
	for i := uint32(0); i < memberCount; i++ {
		username, err := body.ReadString()
		if err != nil {
			return dispatch.Fatal, err
		}
		hostname, err := body.ReadString()
		if err != nil {
			return dispatch.Fatal, err
		}
		operator, err := body.ReadBool()
		if err != nil {
			return dispatch.Fatal, err
		}
		members = append(members, ChannelMember{Username: username, Hostname: hostname, Operator: operator})
	}
	banCount, err := body.ReadUInt32()
	if err != nil {
		return dispatch.Fatal, err
	}
	bans := make([]string, 0, banCount)
	for i := uint32(0); i < banCount; i++ {
		b, err := body.ReadString()
		if err != nil {
			return dispatch.Fatal, err
		}
		bans = append(bans, b)
	}
	c.joinPending.resolve(JoinResult{Result: proto.Result(result), Name: name, Members: members, Bans: bans})
	return dispatch.Accepted, nil
}

func (c *ChannelComponent) handleJoinNotice(body *wire.TypedBuffer) (dispatch.Outcome, error) {
	return c.handleMemberNotice(body, &c.OnJoin)
}

func (c *ChannelComponent) handleMemberNotice(body *wire.TypedBuffer, ev *event.Event) (dispatch.Outcome, error) {
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	name, err := body.ReadString()
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
	ev.Fire(MemberEvent{Result: proto.Result(result), Channel: name, Username: username, Hostname: hostname})
	return dispatch.Accepted, nil
}

func (c *ChannelComponent) handleOperatorNotice(body *wire.TypedBuffer, ev *event.Event) (dispatch.Outcome, error) {
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	username, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	ev.Fire(OperatorEvent{Result: proto.Result(result), Channel: name, Username: username})
	return dispatch.Accepted, nil
}

func (c *ChannelComponent) handleChannelMessage(body *wire.TypedBuffer) (dispatch.Outcome, error) {
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	if proto.Result(result) != proto.ChannelMessageSent {
		return dispatch.Fatal, nil
	}
	name, err := body.ReadString()
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
	text, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	c.OnMessage.Fire(ChannelMessage{Channel: name, Username: username, Hostname: hostname, Text: text})
	return dispatch.Accepted, nil
}

// handleComplete reads a generic "result, name, [extra[, extra2]]"
// *_Complete body. nExtra is the number of additional string fields beyond
// name (0 for a bare ack, 1 for a target username or echoed text, 2 for
// Kick's target username plus hostname).
func (c *ChannelComponent) handleComplete(body *wire.TypedBuffer, p *pending[completeResult], nExtra int) (dispatch.Outcome, error) {
	result, err := body.ReadUInt16()
	if err != nil {
		return dispatch.Fatal, err
	}
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	var extra, extra2 string
	if nExtra >= 1 {
		if extra, err = body.ReadString(); err != nil {
			return dispatch.Fatal, err
		}
	}
	if nExtra >= 2 {
		if extra2, err = body.ReadString(); err != nil {
			return dispatch.Fatal, err
		}
	}
	p.resolve(completeResult{result: proto.Result(result), name: name, extra: extra, extra2: extra2})
	return dispatch.Accepted, nil
}

// Join requests to join or create channel name.
func (c *ChannelComponent) Join(ctx context.Context, s *dispatch.Session, name string) (JoinResult, error) {
	ch := c.joinPending.begin()
	body := s.NewPayload()
	body.WriteString(name)
	if err := s.Send(proto.ComponentChannel, proto.MsgJoinChannel, body); err != nil {
		return JoinResult{}, err
	}
	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

func (c *ChannelComponent) simpleRequest(ctx context.Context, s *dispatch.Session, msgID proto.MessageID, p *pending[completeResult], fields ...string) (proto.Result, error) {
	ch := p.begin()
	body := s.NewPayload()
	for _, f := range fields {
		body.WriteString(f)
	}
	if err := s.Send(proto.ComponentChannel, msgID, body); err != nil {
		return 0, err
	}
	select {
	case r := <-ch:
		return r.result, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Leave requests to leave channel name.
func (c *ChannelComponent) Leave(ctx context.Context, s *dispatch.Session, name string) (proto.Result, error) {
	return c.simpleRequest(ctx, s, proto.MsgLeaveChannel, &c.leavePending, name)
}

// SendMessage posts text to channel name.
func (c *ChannelComponent) SendMessage(ctx context.Context, s *dispatch.Session, name, text string) (proto.Result, error) {
	return c.simpleRequest(ctx, s, proto.MsgChannelSendMessage, &c.sendPending, name, text)
}

// Kick removes targetUsername from channel name.
func (c *ChannelComponent) Kick(ctx context.Context, s *dispatch.Session, name, targetUsername string) (proto.Result, error) {
	return c.simpleRequest(ctx, s, proto.MsgKickUser, &c.kickPending, name, targetUsername)
}

// Ban removes and bars targetUsername from channel name.
func (c *ChannelComponent) Ban(ctx context.Context, s *dispatch.Session, name, targetUsername string) (proto.Result, error) {
	return c.simpleRequest(ctx, s, proto.MsgBanUser, &c.banPending, name, targetUsername)
}

// Op grants operator status to targetUsername in channel name.
func (c *ChannelComponent) Op(ctx context.Context, s *dispatch.Session, name, targetUsername string) (proto.Result, error) {
	return c.simpleRequest(ctx, s, proto.MsgOpUser, &c.opPending, name, targetUsername)
}

// Deop revokes operator status from targetUsername in channel name.
func (c *ChannelComponent) Deop(ctx context.Context, s *dispatch.Session, name, targetUsername string) (proto.Result, error) {
	return c.simpleRequest(ctx, s, proto.MsgDeopUser, &c.deopPending, name, targetUsername)
}

// Unban lifts every ban on targetUsername in channel name, regardless of
// which hostname hash it was recorded under.
func (c *ChannelComponent) Unban(ctx context.Context, s *dispatch.Session, name, targetUsername string) (proto.Result, error) {
	return c.simpleRequest(ctx, s, proto.MsgUnbanUser, &c.unbanPending, name, targetUsername)
}
