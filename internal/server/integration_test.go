package server

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"relaychat/internal/dispatch"
	"relaychat/internal/proto"
	"relaychat/internal/wire"
)

// nativeFlip mirrors dispatch's unexported nativeEndianNeedsFlip so tests
// can encode frames exactly as a real client on this host would.
func nativeFlip() bool {
	buf := make([]byte, 2)
	binary.NativeEndian.PutUint16(buf, 1)
	return buf[0] == 1
}

type peer struct {
	conn net.Conn
	flip bool
}

func newPeer(t *testing.T, users *UserTable, channels *ChannelList) *peer {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	session := dispatch.NewSession(serverConn, nil)

	if err := session.Register(NewSystemComponent()); err != nil {
		t.Fatalf("register system: %v", err)
	}
	if err := session.Register(NewUserComponent(users)); err != nil {
		t.Fatalf("register user: %v", err)
	}
	if err := session.Register(NewChannelComponent(channels)); err != nil {
		t.Fatalf("register channel: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go session.Run(ctx)

	return &peer{conn: clientConn, flip: nativeFlip()}
}

func (p *peer) send(t *testing.T, component proto.ComponentID, msgID proto.MessageID, build func(*wire.TypedBuffer)) {
	t.Helper()
	body := wire.NewTypedBuffer(p.flip)
	if build != nil {
		build(body)
	}
	frame := wire.Encode(uint8(component), uint16(msgID), body.Bytes())
	if _, err := p.conn.Write(frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// recv reads exactly one frame, decoding as much of the header/body as the
// wire codec requires.
func (p *peer) recv(t *testing.T) wire.Frame {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	dec := wire.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := p.conn.Read(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		frames, decErr := dec.Feed(buf[:n])
		if decErr != nil {
			t.Fatalf("decode: %v", decErr)
		}
		if len(frames) > 0 {
			return frames[0]
		}
	}
}

func (p *peer) identify(t *testing.T, username string) {
	t.Helper()
	p.send(t, proto.ComponentUser, proto.MsgIdentify, func(b *wire.TypedBuffer) {
		b.WriteString(username)
	})
	f := p.recv(t)
	body := wire.NewTypedBufferFrom(f.Body, p.flip)
	result, err := body.ReadUInt16()
	if err != nil || proto.Result(result) != proto.Ok {
		t.Fatalf("identify(%q) failed: result=%d err=%v", username, result, err)
	}
}

func TestIdentifyRejectsDuplicateUsername(t *testing.T) {
	users := NewUserTable()
	channels := NewChannelList()

	a := newPeer(t, users, channels)
	b := newPeer(t, users, channels)

	a.identify(t, "alice")

	b.send(t, proto.ComponentUser, proto.MsgIdentify, func(buf *wire.TypedBuffer) {
		buf.WriteString("alice")
	})
	f := b.recv(t)
	body := wire.NewTypedBufferFrom(f.Body, b.flip)
	result, _ := body.ReadUInt16()
	if proto.Result(result) != proto.UsernameInUse {
		t.Fatalf("expected UsernameInUse, got %d", result)
	}
}

func TestDirectMessageDelivery(t *testing.T) {
	users := NewUserTable()
	channels := NewChannelList()

	a := newPeer(t, users, channels)
	b := newPeer(t, users, channels)
	a.identify(t, "alice")
	b.identify(t, "bob")

	a.send(t, proto.ComponentUser, proto.MsgUserSendMessage, func(buf *wire.TypedBuffer) {
		buf.WriteString("bob")
		buf.WriteString("hello there")
	})

	delivered := b.recv(t)
	if delivered.ComponentID != uint8(proto.ComponentUser) || delivered.MessageID != uint16(proto.MsgUserSendMessage) {
		t.Fatalf("unexpected frame to bob: %+v", delivered)
	}
	body := wire.NewTypedBufferFrom(delivered.Body, b.flip)
	result, _ := body.ReadUInt16()
	sender, _ := body.ReadString()
	_, _ = body.ReadString() // hostname hash, not asserted
	text, _ := body.ReadString()
	if proto.Result(result) != proto.MessageSent || sender != "alice" || text != "hello there" {
		t.Fatalf("unexpected DM payload: result=%d sender=%q text=%q", result, sender, text)
	}

	ack := a.recv(t)
	ackBody := wire.NewTypedBufferFrom(ack.Body, a.flip)
	ackResult, _ := ackBody.ReadUInt16()
	if proto.Result(ackResult) != proto.Ok {
		t.Fatalf("expected Ok ack to sender, got %d", ackResult)
	}
}

func TestJoinChannelCreatesAndBroadcastsToSecondJoiner(t *testing.T) {
	users := NewUserTable()
	channels := NewChannelList()

	a := newPeer(t, users, channels)
	b := newPeer(t, users, channels)
	a.identify(t, "alice")
	b.identify(t, "bob")

	a.send(t, proto.ComponentChannel, proto.MsgJoinChannel, func(buf *wire.TypedBuffer) {
		buf.WriteString("#lobby")
	})
	joinReply := a.recv(t)
	body := wire.NewTypedBufferFrom(joinReply.Body, a.flip)
	result, _ := body.ReadUInt16()
	if proto.Result(result) != proto.ChannelCreated {
		t.Fatalf("expected ChannelCreated, got %d", result)
	}

	b.send(t, proto.ComponentChannel, proto.MsgJoinChannel, func(buf *wire.TypedBuffer) {
		buf.WriteString("#lobby")
	})

	// The server acks bob before it sends alice the unsolicited UserJoined,
	// and net.Pipe writes block until read, so bob's ack is read first.
	bobReply := b.recv(t)
	bobBody := wire.NewTypedBufferFrom(bobReply.Body, b.flip)
	bobResult, _ := bobBody.ReadUInt16()
	if proto.Result(bobResult) != proto.Ok {
		t.Fatalf("expected Ok for bob joining existing channel, got %d", bobResult)
	}
	_, _ = bobBody.ReadString() // channel name
	memberCount, _ := bobBody.ReadUInt32()
	if memberCount != 1 {
		t.Fatalf("expected roster of 1 (alice only, bob excluded), got %d", memberCount)
	}
	rosterUsername, _ := bobBody.ReadString()
	rosterHostname, _ := bobBody.ReadString()
	rosterOperator, _ := bobBody.ReadBool()
	if rosterUsername != "alice" || rosterHostname == "" || !rosterOperator {
		t.Fatalf("expected roster entry (alice, <hash>, true), got (%q, %q, %v)", rosterUsername, rosterHostname, rosterOperator)
	}

	notice := a.recv(t)
	if notice.ComponentID != uint8(proto.ComponentChannel) || notice.MessageID != uint16(proto.MsgJoinChannel) {
		t.Fatalf("expected join notice to alice, got %+v", notice)
	}
	noticeBody := wire.NewTypedBufferFrom(notice.Body, a.flip)
	noticeResult, _ := noticeBody.ReadUInt16()
	_, _ = noticeBody.ReadString()
	noticeUsername, _ := noticeBody.ReadString()
	if proto.Result(noticeResult) != proto.UserJoined || noticeUsername != "bob" {
		t.Fatalf("unexpected join notice: result=%d username=%q", noticeResult, noticeUsername)
	}
}

func TestKickRequiresOperator(t *testing.T) {
	users := NewUserTable()
	channels := NewChannelList()

	a := newPeer(t, users, channels)
	b := newPeer(t, users, channels)
	c := newPeer(t, users, channels)
	a.identify(t, "alice")
	b.identify(t, "bob")
	c.identify(t, "carol")

	// Each joiner is acked before the existing members are notified, and
	// notices go out in join order.
	a.send(t, proto.ComponentChannel, proto.MsgJoinChannel, func(buf *wire.TypedBuffer) { buf.WriteString("#lobby") })
	a.recv(t)
	b.send(t, proto.ComponentChannel, proto.MsgJoinChannel, func(buf *wire.TypedBuffer) { buf.WriteString("#lobby") })
	b.recv(t) // join ack
	a.recv(t) // join notice
	c.send(t, proto.ComponentChannel, proto.MsgJoinChannel, func(buf *wire.TypedBuffer) { buf.WriteString("#lobby") })
	c.recv(t) // join ack
	a.recv(t) // join notice
	b.recv(t) // join notice

	// bob (non-operator) tries to kick carol.
	b.send(t, proto.ComponentChannel, proto.MsgKickUser, func(buf *wire.TypedBuffer) {
		buf.WriteString("#lobby")
		buf.WriteString("carol")
	})
	reply := b.recv(t)
	body := wire.NewTypedBufferFrom(reply.Body, b.flip)
	result, _ := body.ReadUInt16()
	if proto.Result(result) != proto.NotPermitted {
		t.Fatalf("expected NotPermitted for non-operator kick, got %d", result)
	}

	// alice (operator, channel creator) kicks carol successfully. The server
	// notifies bob first, then carol, then acks alice.
	a.send(t, proto.ComponentChannel, proto.MsgKickUser, func(buf *wire.TypedBuffer) {
		buf.WriteString("#lobby")
		buf.WriteString("carol")
	})
	bobNotice := b.recv(t)
	if bobNotice.MessageID != uint16(proto.MsgKickUser) {
		t.Fatalf("expected bob to observe the kick, got %+v", bobNotice)
	}
	kicked := c.recv(t)
	if kicked.MessageID != uint16(proto.MsgKickUser) {
		t.Fatalf("expected carol to receive a kick notice, got %+v", kicked)
	}
	// alice is the actor: she gets only the _Complete ack, not a duplicate
	// of the broadcast bob and carol received.
	aliceAck := a.recv(t)
	if aliceAck.MessageID != uint16(proto.MsgKickUserComplete) {
		t.Fatalf("expected alice's next frame to be the kick ack, got %+v", aliceAck)
	}
	ackBody := wire.NewTypedBufferFrom(aliceAck.Body, a.flip)
	ackResult, _ := ackBody.ReadUInt16()
	if proto.Result(ackResult) != proto.Ok {
		t.Fatalf("expected Ok ack for kick, got %d", ackResult)
	}
}
