package server

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"relaychat/internal/dispatch"
	"relaychat/internal/proto"
	"relaychat/internal/wire"
)

// UserComponent implements identification and direct messaging (spec §4.6).
// One instance, backed by one shared UserTable, is registered on every
// Session a server accepts.
type UserComponent struct {
	table *UserTable
}

func NewUserComponent(table *UserTable) *UserComponent {
	return &UserComponent{table: table}
}

func (c *UserComponent) ComponentID() proto.ComponentID { return proto.ComponentUser }

func (c *UserComponent) OnInit(s *dispatch.Session) error { return nil }
func (c *UserComponent) OnShutdown(s *dispatch.Session)   {}

// OnConnect installs a fresh, not-yet-identified record on the session,
// using the raw remote address as its hostname until identification hashes
// it (spec §4.6: "on connect, install a user record with a guest username
// and the raw remote address as hostname").
func (c *UserComponent) OnConnect(s *dispatch.Session) {
	hostname := ""
	if conn := s.Conn(); conn != nil {
		hostname = conn.RemoteAddr().String()
	}
	rec := c.table.Add(s, hostname)
	rec.mu.Lock()
	rec.username = fmt.Sprintf("guest-%06d", rand.IntN(1000000))
	rec.mu.Unlock()
	s.UserRef = rec
}

func (c *UserComponent) OnDisconnect(s *dispatch.Session) {
	if rec := recordFrom(s); rec != nil {
		rec.setEnabled(false)
		c.table.Remove(rec.ID)
	}
}

func (c *UserComponent) HandleFrame(s *dispatch.Session, msgID proto.MessageID, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	switch msgID {
	case proto.MsgIdentify:
		return c.handleIdentify(s, body)
	case proto.MsgUserSendMessage:
		return c.handleSendMessage(s, body)
	default:
		return dispatch.Fatal, fmt.Errorf("server: unknown user message id %d", msgID)
	}
}

func (c *UserComponent) handleIdentify(s *dispatch.Session, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	username, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	reply := s.NewPayload()

	fail := func(result proto.Result) (dispatch.Outcome, error) {
		reply.WriteUInt16(uint16(result))
		reply.WriteString("")
		reply.WriteString("")
		return dispatch.Accepted, s.Send(proto.ComponentUser, proto.MsgIdentifyComplete, reply)
	}

	switch {
	case username == "" || strings.ContainsRune(username, '#'):
		return fail(proto.InvalidUsername)
	case len(username) > proto.MaxUsernameLen:
		return fail(proto.UsernameTooLong)
	case rec.Identified():
		return fail(proto.AlreadyIdentified)
	case c.table.UsernameTaken(username):
		return fail(proto.UsernameInUse)
	}

	hashed := hashHostname(rec.Hostname())
	rec.identify(username, hashed)

	reply.WriteUInt16(uint16(proto.Ok))
	reply.WriteString(username)
	reply.WriteString(hashed)
	return dispatch.Accepted, s.Send(proto.ComponentUser, proto.MsgIdentifyComplete, reply)
}

func (c *UserComponent) handleSendMessage(s *dispatch.Session, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	target, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	message, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	reply := s.NewPayload()

	fail := func(result proto.Result) (dispatch.Outcome, error) {
		reply.WriteUInt16(uint16(result))
		reply.WriteString(target)
		reply.WriteString(message)
		return dispatch.Accepted, s.Send(proto.ComponentUser, proto.MsgUserSendMessageReply, reply)
	}

	if !rec.Identified() {
		return fail(proto.NotIdentified)
	}
	if target == rec.Username() {
		return fail(proto.CannotMessageSelf)
	}

	dest, ok := c.table.FindIdentified(target)
	if !ok {
		return fail(proto.InvalidUsername)
	}
	if len(message) == 0 {
		return fail(proto.InvalidMessage)
	}
	if len(message) > proto.MaxMessageLen {
		return fail(proto.MessageTooLong)
	}
	if !dest.Identified() {
		// Defensive: FindIdentified already filters on Identified, so this
		// is unreachable in practice — kept for parity with the spec's
		// explicit dual-state check.
		return fail(proto.UserNotIdentified)
	}

	notify := dest.Session.NewPayload()
	notify.WriteUInt16(uint16(proto.MessageSent))
	notify.WriteString(rec.Username())
	notify.WriteString(rec.Hostname())
	notify.WriteString(message)
	_ = dest.Session.Send(proto.ComponentUser, proto.MsgUserSendMessage, notify)

	reply.WriteUInt16(uint16(proto.Ok))
	reply.WriteString(target)
	reply.WriteString(message)
	return dispatch.Accepted, s.Send(proto.ComponentUser, proto.MsgUserSendMessageReply, reply)
}
