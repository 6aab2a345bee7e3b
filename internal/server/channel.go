package server

import (
	"fmt"
	"strings"
	"sync"

	"relaychat/internal/dispatch"
	"relaychat/internal/proto"
	"relaychat/internal/wire"
)

// banToken identifies a ban entry as "username@hostnamehash" (spec §3: bans
// survive the banned user's disconnect, so they can't be keyed by a live
// record). hostnamehash is whatever hashHostname produced at ban time.
func banToken(username, hostnameHash string) string {
	return username + "@" + hostnameHash
}

// channel holds one channel's membership, operator, and ban sets. Spec §3
// keeps these as three independently guarded sets; this rendering follows
// that literally with three separate mutexes rather than one channel-wide
// lock, and always acquires them in the fixed order members, operators,
// bans when an operation needs more than one (spec §5's deadlock-avoidance
// rule).
type channel struct {
	name string

	membersMu sync.RWMutex
	members   map[uint32]*UserRecord
	joinOrder []uint32 // member ids, oldest first

	operatorsMu sync.RWMutex
	operators   map[uint32]struct{}

	bansMu sync.RWMutex
	bans   map[string]struct{}
}

func newChannel(name string) *channel {
	return &channel{
		name:      name,
		members:   make(map[uint32]*UserRecord),
		operators: make(map[uint32]struct{}),
		bans:      make(map[string]struct{}),
	}
}

func (ch *channel) isEmpty() bool {
	ch.membersMu.RLock()
	defer ch.membersMu.RUnlock()
	return len(ch.members) == 0
}

func (ch *channel) addMember(rec *UserRecord) {
	ch.membersMu.Lock()
	if _, ok := ch.members[rec.ID]; !ok {
		ch.joinOrder = append(ch.joinOrder, rec.ID)
	}
	ch.members[rec.ID] = rec
	ch.membersMu.Unlock()
}

func (ch *channel) removeMember(id uint32) {
	ch.membersMu.Lock()
	delete(ch.members, id)
	for i, mid := range ch.joinOrder {
		if mid == id {
			ch.joinOrder = append(ch.joinOrder[:i], ch.joinOrder[i+1:]...)
			break
		}
	}
	ch.membersMu.Unlock()
	ch.operatorsMu.Lock()
	delete(ch.operators, id)
	ch.operatorsMu.Unlock()
}

func (ch *channel) hasMember(id uint32) bool {
	ch.membersMu.RLock()
	defer ch.membersMu.RUnlock()
	_, ok := ch.members[id]
	return ok
}

func (ch *channel) memberByUsername(username string) (*UserRecord, bool) {
	ch.membersMu.RLock()
	defer ch.membersMu.RUnlock()
	for _, m := range ch.members {
		if m.Username() == username {
			return m, true
		}
	}
	return nil, false
}

// snapshotMembers returns the current members in join order.
func (ch *channel) snapshotMembers() []*UserRecord {
	ch.membersMu.RLock()
	defer ch.membersMu.RUnlock()
	out := make([]*UserRecord, 0, len(ch.joinOrder))
	for _, id := range ch.joinOrder {
		out = append(out, ch.members[id])
	}
	return out
}

func (ch *channel) isOperator(id uint32) bool {
	ch.operatorsMu.RLock()
	defer ch.operatorsMu.RUnlock()
	_, ok := ch.operators[id]
	return ok
}

func (ch *channel) setOperator(id uint32, v bool) {
	ch.operatorsMu.Lock()
	if v {
		ch.operators[id] = struct{}{}
	} else {
		delete(ch.operators, id)
	}
	ch.operatorsMu.Unlock()
}

func (ch *channel) isBanned(token string) bool {
	ch.bansMu.RLock()
	defer ch.bansMu.RUnlock()
	_, ok := ch.bans[token]
	return ok
}

func (ch *channel) addBan(token string) {
	ch.bansMu.Lock()
	ch.bans[token] = struct{}{}
	ch.bansMu.Unlock()
}

func (ch *channel) removeBan(token string) bool {
	ch.bansMu.Lock()
	defer ch.bansMu.Unlock()
	if _, ok := ch.bans[token]; !ok {
		return false
	}
	delete(ch.bans, token)
	return true
}

// removeBansForUsername lifts every ban token for username regardless of
// which hostname hash it was recorded under (spec §4.8: Unban is keyed by
// username and matches every token with that username component).
func (ch *channel) removeBansForUsername(username string) bool {
	prefix := username + "@"
	ch.bansMu.Lock()
	defer ch.bansMu.Unlock()
	removed := false
	for token := range ch.bans {
		if strings.HasPrefix(token, prefix) {
			delete(ch.bans, token)
			removed = true
		}
	}
	return removed
}

func (ch *channel) snapshotBans() []string {
	ch.bansMu.RLock()
	defer ch.bansMu.RUnlock()
	out := make([]string, 0, len(ch.bans))
	for b := range ch.bans {
		out = append(out, b)
	}
	return out
}

// ChannelList is the server-wide set of live channels (spec §3: "a channel
// is enabled iff its member set is non-empty"; an empty channel is deleted
// outright rather than kept around disabled).
type ChannelList struct {
	mu       sync.RWMutex
	channels map[string]*channel
}

func NewChannelList() *ChannelList {
	return &ChannelList{channels: make(map[string]*channel)}
}

func (l *ChannelList) get(name string) (*channel, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ch, ok := l.channels[name]
	return ch, ok
}

// getOrCreate returns the named channel and whether it already existed.
func (l *ChannelList) getOrCreate(name string) (ch *channel, created bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, ok := l.channels[name]; ok {
		return ch, false
	}
	ch = newChannel(name)
	l.channels[name] = ch
	return ch, true
}

// destroyIfEmpty removes the named channel once its last member has left.
func (l *ChannelList) destroyIfEmpty(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, ok := l.channels[name]; ok && ch.isEmpty() {
		delete(l.channels, name)
	}
}

func (l *ChannelList) snapshot() []*channel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*channel, 0, len(l.channels))
	for _, ch := range l.channels {
		out = append(out, ch)
	}
	return out
}

// ChannelSummary is the externally visible shape of a live channel, used by
// internal/httpapi's /status endpoint.
type ChannelSummary struct {
	Name        string
	MemberCount int
}

// Summaries returns one ChannelSummary per currently live channel.
func (l *ChannelList) Summaries() []ChannelSummary {
	chans := l.snapshot()
	out := make([]ChannelSummary, 0, len(chans))
	for _, ch := range chans {
		out = append(out, ChannelSummary{Name: ch.name, MemberCount: len(ch.snapshotMembers())})
	}
	return out
}

// ChannelComponent implements join, leave, channel messaging, and
// moderation (spec §4.8). One instance, backed by one shared ChannelList, is
// registered on every Session a server accepts.
type ChannelComponent struct {
	list *ChannelList

	// audit, if set, records every kick/ban/op/deop/unban (SPEC_FULL.md
	// §2.1's append-only moderation log). Nil means auditing is off.
	audit AuditSink
}

// AuditSink receives one record per moderation action. Implemented by
// internal/audit.Log; kept as an interface here so this package doesn't
// depend on the sqlite driver.
type AuditSink interface {
	RecordModeration(channel, action, actor, target string)
}

func NewChannelComponent(list *ChannelList) *ChannelComponent {
	return &ChannelComponent{list: list}
}

// SetAudit wires an audit sink after construction (cmd/server assembles the
// audit log after the database is open).
func (c *ChannelComponent) SetAudit(a AuditSink) { c.audit = a }

func (c *ChannelComponent) ComponentID() proto.ComponentID { return proto.ComponentChannel }

func (c *ChannelComponent) OnInit(s *dispatch.Session) error { return nil }
func (c *ChannelComponent) OnShutdown(s *dispatch.Session)   {}
func (c *ChannelComponent) OnConnect(s *dispatch.Session)    {}

// OnDisconnect purges the departing user from every channel it belonged to,
// multicasting a leave notice and destroying any channel left empty (spec
// §4.8's disconnect rule).
func (c *ChannelComponent) OnDisconnect(s *dispatch.Session) {
	rec := recordFrom(s)
	if rec == nil {
		return
	}
	for _, ch := range c.list.snapshot() {
		if !ch.hasMember(rec.ID) {
			continue
		}
		ch.removeMember(rec.ID)
		c.broadcastLeave(ch, rec)
		c.list.destroyIfEmpty(ch.name)
	}
}

func (c *ChannelComponent) HandleFrame(s *dispatch.Session, msgID proto.MessageID, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	switch msgID {
	case proto.MsgJoinChannel:
		return c.handleJoin(s, body)
	case proto.MsgLeaveChannel:
		return c.handleLeave(s, body)
	case proto.MsgChannelSendMessage:
		return c.handleSendMessage(s, body)
	case proto.MsgOpUser:
		return c.handleSetOperator(s, body, true)
	case proto.MsgDeopUser:
		return c.handleSetOperator(s, body, false)
	case proto.MsgKickUser:
		return c.handleKick(s, body)
	case proto.MsgBanUser:
		return c.handleBan(s, body)
	case proto.MsgUnbanUser:
		return c.handleUnban(s, body)
	default:
		return dispatch.Fatal, fmt.Errorf("server: unknown channel message id %d", msgID)
	}
}

func validChannelName(name string) proto.Result {
	switch {
	case !strings.HasPrefix(name, "#"):
		return proto.InvalidChannelName
	case len(name) > proto.MaxChannelNameLen:
		return proto.ChannelNameTooLong
	}
	return proto.Ok
}

func (c *ChannelComponent) handleJoin(s *dispatch.Session, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	reply := s.NewPayload()

	fail := func(result proto.Result) (dispatch.Outcome, error) {
		encodeJoinComplete(reply, result, name, nil, nil, nil)
		return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgJoinChannelComplete, reply)
	}

	if !rec.Identified() {
		return fail(proto.NotIdentified)
	}
	if result := validChannelName(name); result != proto.Ok {
		return fail(result)
	}

	ch, created := c.list.getOrCreate(name)

	if !created {
		if ch.hasMember(rec.ID) {
			return fail(proto.AlreadyInChannel)
		}
		if ch.isBanned(banToken(rec.Username(), rec.Hostname())) {
			return fail(proto.BannedFromChannel)
		}
	}

	// Snapshot the existing membership before adding the requester, so the
	// roster sent back names every *other* member, never the joiner
	// themself (spec §4.8).
	others := ch.snapshotMembers()
	bans := ch.snapshotBans()

	ch.addMember(rec)
	if created {
		ch.setOperator(rec.ID, true)
	}

	result := proto.Ok
	if created {
		result = proto.ChannelCreated
	}
	encodeJoinComplete(reply, result, name, ch, others, bans)
	if err := s.Send(proto.ComponentChannel, proto.MsgJoinChannelComplete, reply); err != nil {
		return dispatch.Accepted, err
	}

	c.multicastExcept(ch, func(p *wire.TypedBuffer) {
		encodeMemberEvent(p, proto.UserJoined, name, rec)
	}, proto.MsgJoinChannel, rec.ID)

	return dispatch.Accepted, nil
}

func (c *ChannelComponent) handleLeave(s *dispatch.Session, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	reply := s.NewPayload()

	fail := func(result proto.Result) (dispatch.Outcome, error) {
		reply.WriteUInt16(uint16(result))
		reply.WriteString(name)
		return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgLeaveChannelComplete, reply)
	}

	if !rec.Identified() {
		return fail(proto.NotIdentified)
	}
	if result := validChannelName(name); result != proto.Ok {
		return fail(result)
	}
	ch, ok := c.list.get(name)
	if !ok || !ch.hasMember(rec.ID) {
		return fail(proto.NotInChannel)
	}

	ch.removeMember(rec.ID)
	c.broadcastLeave(ch, rec)
	c.list.destroyIfEmpty(name)

	reply.WriteUInt16(uint16(proto.Ok))
	reply.WriteString(name)
	return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgLeaveChannelComplete, reply)
}

func (c *ChannelComponent) broadcastLeave(ch *channel, rec *UserRecord) {
	c.multicastExcept(ch, func(p *wire.TypedBuffer) {
		encodeMemberEvent(p, proto.UserLeft, ch.name, rec)
	}, proto.MsgLeaveChannel, rec.ID)
}

func (c *ChannelComponent) handleSendMessage(s *dispatch.Session, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	text, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	reply := s.NewPayload()

	fail := func(result proto.Result) (dispatch.Outcome, error) {
		reply.WriteUInt16(uint16(result))
		reply.WriteString(name)
		reply.WriteString(text)
		return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgChannelSendMessageReply, reply)
	}

	if !rec.Identified() {
		return fail(proto.NotIdentified)
	}
	if result := validChannelName(name); result != proto.Ok {
		return fail(result)
	}
	ch, ok := c.list.get(name)
	if !ok || !ch.hasMember(rec.ID) {
		return fail(proto.NotInChannel)
	}
	if len(text) == 0 {
		return fail(proto.InvalidMessage)
	}
	if len(text) > proto.MaxMessageLen {
		return fail(proto.MessageTooLong)
	}

	c.multicastExcept(ch, func(p *wire.TypedBuffer) {
		p.WriteUInt16(uint16(proto.ChannelMessageSent))
		p.WriteString(name)
		p.WriteString(rec.Username())
		p.WriteString(rec.Hostname())
		p.WriteString(text)
	}, proto.MsgChannelSendMessage, rec.ID)

	reply.WriteUInt16(uint16(proto.Ok))
	reply.WriteString(name)
	reply.WriteString(text)
	return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgChannelSendMessageReply, reply)
}

// requireOperator resolves the channel and target member for any op/deop/
// kick/ban request, and checks the common preconditions every one of those
// operations shares (spec §4.8): actor identified, channel name valid, both
// in the channel, and actor holds operator status.
func (c *ChannelComponent) requireOperator(rec *UserRecord, name, targetUsername string) (*channel, *UserRecord, proto.Result) {
	if !rec.Identified() {
		return nil, nil, proto.NotIdentified
	}
	if result := validChannelName(name); result != proto.Ok {
		return nil, nil, result
	}
	ch, ok := c.list.get(name)
	if !ok || !ch.hasMember(rec.ID) {
		return nil, nil, proto.NotInChannel
	}
	if !ch.isOperator(rec.ID) {
		return ch, nil, proto.NotPermitted
	}
	target, ok := ch.memberByUsername(targetUsername)
	if !ok {
		return ch, nil, proto.InvalidUsername
	}
	return ch, target, proto.Ok
}

func (c *ChannelComponent) handleSetOperator(s *dispatch.Session, body *wire.TypedBuffer, grant bool) (dispatch.Outcome, error) {
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	targetUsername, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	msgComplete := proto.MsgOpUserComplete
	msgUnsolicited := proto.MsgOpUser
	already := proto.AlreadyOperator
	done := proto.UserOpped
	action := "op"
	if !grant {
		msgComplete = proto.MsgDeopUserComplete
		msgUnsolicited = proto.MsgDeopUser
		already = proto.AlreadyNotOperator
		done = proto.UserDeopped
		action = "deop"
	}

	reply := s.NewPayload()
	fail := func(result proto.Result) (dispatch.Outcome, error) {
		reply.WriteUInt16(uint16(result))
		reply.WriteString(name)
		reply.WriteString(targetUsername)
		return dispatch.Accepted, s.Send(proto.ComponentChannel, msgComplete, reply)
	}

	ch, target, result := c.requireOperator(rec, name, targetUsername)
	if result != proto.Ok {
		return fail(result)
	}
	if ch.isOperator(target.ID) == grant {
		return fail(already)
	}

	ch.setOperator(target.ID, grant)
	c.recordAudit(name, action, rec.Username(), targetUsername)

	c.multicastExcept(ch, func(p *wire.TypedBuffer) {
		p.WriteUInt16(uint16(done))
		p.WriteString(name)
		p.WriteString(targetUsername)
	}, msgUnsolicited, rec.ID)

	reply.WriteUInt16(uint16(proto.Ok))
	reply.WriteString(name)
	reply.WriteString(targetUsername)
	return dispatch.Accepted, s.Send(proto.ComponentChannel, msgComplete, reply)
}

func (c *ChannelComponent) handleKick(s *dispatch.Session, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	targetUsername, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	reply := s.NewPayload()
	fail := func(result proto.Result) (dispatch.Outcome, error) {
		reply.WriteUInt16(uint16(result))
		reply.WriteString(name)
		reply.WriteString(targetUsername)
		reply.WriteString("")
		return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgKickUserComplete, reply)
	}

	if targetUsername == rec.Username() {
		return fail(proto.CannotKickSelf)
	}
	ch, target, result := c.requireOperator(rec, name, targetUsername)
	if result != proto.Ok {
		return fail(result)
	}

	ch.removeMember(target.ID)
	c.list.destroyIfEmpty(name)
	c.recordAudit(name, "kick", rec.Username(), targetUsername)

	c.multicastExcept(ch, func(p *wire.TypedBuffer) {
		encodeMemberEvent(p, proto.UserKicked, name, target)
	}, proto.MsgKickUser, target.ID, rec.ID)
	kickNotice := target.Session.NewPayload()
	encodeMemberEvent(kickNotice, proto.UserKicked, name, target)
	_ = target.Session.Send(proto.ComponentChannel, proto.MsgKickUser, kickNotice)

	reply.WriteUInt16(uint16(proto.Ok))
	reply.WriteString(name)
	reply.WriteString(target.Username())
	reply.WriteString(target.Hostname())
	return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgKickUserComplete, reply)
}

func (c *ChannelComponent) handleBan(s *dispatch.Session, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	targetUsername, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	reply := s.NewPayload()
	fail := func(result proto.Result) (dispatch.Outcome, error) {
		reply.WriteUInt16(uint16(result))
		reply.WriteString(name)
		reply.WriteString(targetUsername)
		return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgBanUserComplete, reply)
	}

	if targetUsername == rec.Username() {
		return fail(proto.CannotBanSelf)
	}
	ch, target, result := c.requireOperator(rec, name, targetUsername)
	if result != proto.Ok {
		return fail(result)
	}

	token := banToken(target.Username(), target.Hostname())
	if ch.isBanned(token) {
		return fail(proto.AlreadyBanned)
	}

	ch.addBan(token)
	ch.removeMember(target.ID)
	c.list.destroyIfEmpty(name)
	c.recordAudit(name, "ban", rec.Username(), targetUsername)

	c.multicastExcept(ch, func(p *wire.TypedBuffer) {
		encodeMemberEvent(p, proto.UserBanned, name, target)
	}, proto.MsgBanUser, target.ID, rec.ID)
	banNotice := target.Session.NewPayload()
	encodeMemberEvent(banNotice, proto.UserBanned, name, target)
	_ = target.Session.Send(proto.ComponentChannel, proto.MsgBanUser, banNotice)

	reply.WriteUInt16(uint16(proto.Ok))
	reply.WriteString(name)
	reply.WriteString(target.Username())
	return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgBanUserComplete, reply)
}

func (c *ChannelComponent) handleUnban(s *dispatch.Session, body *wire.TypedBuffer) (dispatch.Outcome, error) {
	name, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}
	targetUsername, err := body.ReadString()
	if err != nil {
		return dispatch.Fatal, err
	}

	rec := recordFrom(s)
	reply := s.NewPayload()
	fail := func(result proto.Result) (dispatch.Outcome, error) {
		reply.WriteUInt16(uint16(result))
		reply.WriteString(name)
		reply.WriteString(targetUsername)
		return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgUnbanUserComplete, reply)
	}

	if !rec.Identified() {
		return fail(proto.NotIdentified)
	}
	if result := validChannelName(name); result != proto.Ok {
		return fail(result)
	}
	ch, ok := c.list.get(name)
	if !ok || !ch.hasMember(rec.ID) {
		return fail(proto.NotInChannel)
	}
	if !ch.isOperator(rec.ID) {
		return fail(proto.NotPermitted)
	}
	if targetUsername == "" || strings.ContainsRune(targetUsername, '#') {
		return fail(proto.InvalidUsername)
	}

	if !ch.removeBansForUsername(targetUsername) {
		return fail(proto.NotBanned)
	}
	c.recordAudit(name, "unban", rec.Username(), targetUsername)

	c.multicastExcept(ch, func(p *wire.TypedBuffer) {
		p.WriteUInt16(uint16(proto.UserUnbanned))
		p.WriteString(name)
		p.WriteString(targetUsername)
	}, proto.MsgUnbanUser, rec.ID)

	reply.WriteUInt16(uint16(proto.Ok))
	reply.WriteString(name)
	reply.WriteString(targetUsername)
	return dispatch.Accepted, s.Send(proto.ComponentChannel, proto.MsgUnbanUserComplete, reply)
}

func (c *ChannelComponent) recordAudit(channelName, action, actor, target string) {
	if c.audit != nil {
		c.audit.RecordModeration(channelName, action, actor, target)
	}
}

// multicastExcept sends build(payload) to every member of ch except those
// listed in excludeIDs. Members are snapshotted first so sends never happen
// while holding the channel's membership lock (spec §5's snapshot-then-
// release rule for multicast).
func (c *ChannelComponent) multicastExcept(ch *channel, build func(*wire.TypedBuffer), msgID proto.MessageID, excludeIDs ...uint32) {
	for _, m := range ch.snapshotMembers() {
		excluded := false
		for _, id := range excludeIDs {
			if m.ID == id {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		p := m.Session.NewPayload()
		build(p)
		_ = m.Session.Send(proto.ComponentChannel, msgID, p)
	}
}

func encodeMemberEvent(p *wire.TypedBuffer, result proto.Result, channelName string, rec *UserRecord) {
	p.WriteUInt16(uint16(result))
	p.WriteString(channelName)
	p.WriteString(rec.Username())
	p.WriteString(rec.Hostname())
}

// encodeJoinComplete writes the JoinChannel_Complete body: result, name, then
// the roster of every *other* member (joiner excluded) each tagged with its
// operator flag, and the ban list, as they stood just before the joiner was
// added. On any non-success result the caller passes a nil channel and nil
// slices, since an error carries no channel state at all.
func encodeJoinComplete(p *wire.TypedBuffer, result proto.Result, name string, ch *channel, members []*UserRecord, bans []string) {
	p.WriteUInt16(uint16(result))
	p.WriteString(name)
	p.WriteUInt32(uint32(len(members)))
	for _, m := range members {
		p.WriteString(m.Username())
		p.WriteString(m.Hostname())
		p.WriteBool(ch.isOperator(m.ID))
	}
	p.WriteUInt32(uint32(len(bans)))
	for _, b := range bans {
		p.WriteString(b)
	}
}
