package domain

import "time"

// Room is the durable room record. Participants is the set of user ids
// allowed in the room, independent of who is currently connected. The
// creator is a participant from creation onward; the set changes only
// through explicit join/leave, never through message activity.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsPrivate    bool      `json:"isPrivate"`
	CreatorID    string    `json:"creatorId"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (r *Room) HasParticipant(userID string) bool {
	for _, id := range r.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// AddParticipant appends userID if absent and reports whether the set changed.
func (r *Room) AddParticipant(userID string) bool {
	if r.HasParticipant(userID) {
		return false
	}
	r.Participants = append(r.Participants, userID)
	return true
}

// RemoveParticipant deletes userID and reports whether the set changed.
func (r *Room) RemoveParticipant(userID string) bool {
	for i, id := range r.Participants {
		if id == userID {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return true
		}
	}
	return false
}
