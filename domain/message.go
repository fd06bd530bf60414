package domain

import "time"

// Message is an immutable chat record: exactly one of RoomID (room message)
// or RecipientID (private message) is set. Once created, sender, room and
// recipient never change; only IsRead may flip, and only once, by the
// addressed recipient.
type Message struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	SenderID    string    `json:"senderId"`
	RoomID      string    `json:"roomId,omitempty"`
	RecipientID string    `json:"recipientId,omitempty"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsPrivate reports whether the message is addressed to a single recipient
// rather than a room.
func (m *Message) IsPrivate() bool {
	return m.RecipientID != ""
}
