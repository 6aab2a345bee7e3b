// Package proto enumerates the closed sets of component ids, message ids,
// and result codes the wire protocol uses, plus the size limits and
// protocol version string components and handlers are built against.
package proto

import "fmt"

// ComponentID identifies which component a frame belongs to.
type ComponentID uint8

const (
	ComponentSystem  ComponentID = 0
	ComponentUser    ComponentID = 1
	ComponentChannel ComponentID = 2
	// ComponentMax is an exclusive sentinel; any incoming frame whose
	// component id is >= ComponentMax is malformed and forces a disconnect.
	ComponentMax ComponentID = 3
)

// MessageID identifies a message within its component.
type MessageID uint16

// System component message ids.
const (
	MsgHello         MessageID = 0
	MsgHelloComplete MessageID = 1
)

// User component message ids.
const (
	MsgIdentify             MessageID = 0
	MsgIdentifyComplete     MessageID = 1
	MsgUserSendMessage      MessageID = 2
	MsgUserSendMessageReply MessageID = 3
)

// Channel component message ids.
const (
	MsgJoinChannel             MessageID = 0
	MsgJoinChannelComplete     MessageID = 1
	MsgLeaveChannel            MessageID = 2
	MsgLeaveChannelComplete    MessageID = 3
	MsgChannelSendMessage      MessageID = 4
	MsgChannelSendMessageReply MessageID = 5
	MsgOpUser                  MessageID = 6
	MsgOpUserComplete          MessageID = 7
	MsgDeopUser                MessageID = 8
	MsgDeopUserComplete        MessageID = 9
	MsgKickUser                MessageID = 10
	MsgKickUserComplete        MessageID = 11
	MsgBanUser                 MessageID = 12
	MsgBanUserComplete         MessageID = 13
	MsgUnbanUser               MessageID = 14
	MsgUnbanUserComplete       MessageID = 15
)

// Result is the 16-bit result code leading every *_Complete body, and the
// code an unsolicited peer-change message reuses to describe itself.
type Result uint16

// Codes shared across every component.
const (
	Ok   Result = 0
	Fail Result = 1

	NotIdentified Result = 2
)

// System component results.
const (
	InvalidProtocolVersion Result = 10
)

// User component results.
const (
	InvalidUsername    Result = 20
	UsernameTooLong    Result = 21
	AlreadyIdentified  Result = 22
	UsernameInUse      Result = 23
	CannotMessageSelf  Result = 24
	UserNotIdentified  Result = 25
	InvalidMessage     Result = 26
	MessageTooLong     Result = 27

	// MessageSent tags an unsolicited User/SendMessage delivered to a
	// direct-message recipient.
	MessageSent Result = 28
)

// Channel component results.
const (
	InvalidChannelName  Result = 40
	ChannelNameTooLong  Result = 41
	AlreadyInChannel    Result = 42
	BannedFromChannel   Result = 43
	NotInChannel        Result = 44
	NotPermitted        Result = 45
	CannotKickSelf      Result = 46
	CannotBanSelf       Result = 47
	AlreadyBanned       Result = 48
	AlreadyOperator     Result = 49
	AlreadyNotOperator  Result = 50
	NotBanned           Result = 51

	// ChannelCreated tags a successful JoinChannel_Complete that created a
	// brand-new channel, as opposed to Ok (joined an existing one).
	ChannelCreated Result = 52

	// These tag unsolicited Channel/* messages multicast to other members.
	UserJoined   Result = 53
	UserLeft     Result = 54
	ChannelMessageSent Result = 55
	UserKicked   Result = 56
	UserBanned   Result = 57
	UserOpped    Result = 58
	UserDeopped  Result = 59
	UserUnbanned Result = 60
)

// Size limits (spec §6).
const (
	MaxUsernameLen    = 24
	MaxChannelNameLen = 24
	MaxMessageLen     = 1024
)

// Version is the protocol version string this build speaks. A Hello whose
// version does not match exactly is rejected with InvalidProtocolVersion.
const Version = "1.2.6"

var resultNames = map[Result]string{
	Ok:                     "ok",
	Fail:                   "fail",
	NotIdentified:          "not identified",
	InvalidProtocolVersion: "invalid protocol version",
	InvalidUsername:        "invalid username",
	UsernameTooLong:        "username too long",
	AlreadyIdentified:      "already identified",
	UsernameInUse:          "username in use",
	CannotMessageSelf:      "cannot message self",
	UserNotIdentified:      "user not identified",
	InvalidMessage:         "invalid message",
	MessageTooLong:         "message too long",
	MessageSent:            "message sent",
	InvalidChannelName:     "invalid channel name",
	ChannelNameTooLong:     "channel name too long",
	AlreadyInChannel:       "already in channel",
	BannedFromChannel:      "banned from channel",
	NotInChannel:           "not in channel",
	NotPermitted:           "not permitted",
	CannotKickSelf:         "cannot kick self",
	CannotBanSelf:          "cannot ban self",
	AlreadyBanned:          "already banned",
	AlreadyOperator:        "already operator",
	AlreadyNotOperator:     "already not operator",
	NotBanned:              "not banned",
	ChannelCreated:         "channel created",
	UserJoined:             "user joined",
	UserLeft:               "user left",
	ChannelMessageSent:     "channel message sent",
	UserKicked:             "user kicked",
	UserBanned:             "user banned",
	UserOpped:              "user opped",
	UserDeopped:            "user deopped",
	UserUnbanned:           "user unbanned",
}

// String renders a Result the way cmd/client's REPL reports it to a user.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("result(%d)", uint16(r))
}
