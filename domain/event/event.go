// Package event defines the live events fanned out to connected sessions.
// Message events are emitted only after successful persistence; typing and
// membership events are transient and never stored.
package event

import "time"

// Event is anything deliverable to a live session. Kind is the wire name
// the transport puts in its envelope.
type Event interface {
	Kind() string
}

// MessageReceived is the delivery of a persisted room message. The sender's
// own session receives it too: delivery derives from persistence, not from
// sender exclusion.
type MessageReceived struct {
	MessageID string    `json:"messageId"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"timestamp"`
}

func (MessageReceived) Kind() string { return "receive_message" }

// PrivateMessage is the delivery of a persisted direct message, addressed
// to the recipient's live sessions.
type PrivateMessage struct {
	MessageID   string    `json:"messageId"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"timestamp"`
}

func (PrivateMessage) Kind() string { return "private_message" }

// Typing is a transient notice, broadcast to everyone in the room except
// the originating session.
type Typing struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

func (Typing) Kind() string { return "user_typing" }

// MemberJoined and MemberLeft are transient presence events for a room's
// live audience.
type MemberJoined struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

func (MemberJoined) Kind() string { return "member_joined" }

type MemberLeft struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

func (MemberLeft) Kind() string { return "member_left" }

// RoomJoined and RoomLeft acknowledge a session's own live join/leave.
type RoomJoined struct {
	RoomID string `json:"roomId"`
}

func (RoomJoined) Kind() string { return "room_joined" }

type RoomLeft struct {
	RoomID string `json:"roomId"`
}

func (RoomLeft) Kind() string { return "room_left" }

// Error reports a rejected live operation back to the offending session.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (Error) Kind() string { return "error" }
