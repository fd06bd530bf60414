package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"roomchat/domain"
	"roomchat/errors"
)

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsOnline  bool      `json:"isOnline"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoomResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsPrivate    bool      `json:"isPrivate"`
	CreatorID    string    `json:"creatorId"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

type MessageResponse struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	SenderID    string    `json:"senderId"`
	RoomID      string    `json:"roomId,omitempty"`
	RecipientID string    `json:"recipientId,omitempty"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsOnline:  user.IsOnline,
		CreatedAt: user.CreatedAt,
	}
}

func toRoomResponse(room domain.Room) RoomResponse {
	return RoomResponse{
		ID:           room.ID,
		Name:         room.Name,
		Description:  room.Description,
		IsPrivate:    room.IsPrivate,
		CreatorID:    room.CreatorID,
		Participants: room.Participants,
		CreatedAt:    room.CreatedAt,
	}
}

func toMessageResponse(msg domain.Message) MessageResponse {
	return MessageResponse{
		ID:          msg.ID,
		Content:     msg.Content,
		SenderID:    msg.SenderID,
		RoomID:      msg.RoomID,
		RecipientID: msg.RecipientID,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt,
	}
}

// respondError maps a service error to its HTTP status.
func respondError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
}
