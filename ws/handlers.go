package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/runtime"
)

// Inbound frame kinds.
const (
	kindJoinRoom    = "join_room"
	kindLeaveRoom   = "leave_room"
	kindSendMessage = "send_message"
	kindTyping      = "typing"
)

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type sendMessagePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

type typingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

func (ct *Controller) handleFrame(ctx context.Context, sess *runtime.Session, username string, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ct.deliverError(ctx, sess, errors.ErrValidation)
		return
	}

	switch env.Type {
	case kindJoinRoom:
		var payload roomPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			ct.deliverError(ctx, sess, errors.ErrValidation)
			return
		}
		ct.handleJoin(ctx, sess, username, payload.RoomID)
	case kindLeaveRoom:
		var payload roomPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			ct.deliverError(ctx, sess, errors.ErrValidation)
			return
		}
		ct.handleLeave(ctx, sess, username, payload.RoomID)
	case kindSendMessage:
		var payload sendMessagePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			ct.deliverError(ctx, sess, errors.ErrValidation)
			return
		}
		if _, err := ct.messages.SendRoomMessage(ctx, sess.UserID, payload.RoomID, payload.Content); err != nil {
			ct.deliverError(ctx, sess, err)
		}
	case kindTyping:
		var payload typingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			ct.deliverError(ctx, sess, errors.ErrValidation)
			return
		}
		ct.handleTyping(ctx, sess, payload)
	default:
		ct.log.Debug("unknown frame kind", "kind", env.Type, "session_id", sess.ID)
		ct.deliverError(ctx, sess, errors.ErrValidation)
	}
}

// handleJoin attaches the session to the room's live audience. Durable
// membership is required first; the REST join endpoint grants it.
func (ct *Controller) handleJoin(ctx context.Context, sess *runtime.Session, username, roomID string) {
	if err := ct.rooms.CanReadRoom(sess.UserID, roomID); err != nil {
		ct.deliverError(ctx, sess, err)
		return
	}
	if err := ct.registry.JoinRoom(sess, roomID); err != nil {
		ct.deliverError(ctx, sess, err)
		return
	}
	_ = sess.Deliver(ctx, event.RoomJoined{RoomID: roomID})
	ct.dispatcher.BroadcastRoom(ctx, roomID, event.MemberJoined{
		RoomID:   roomID,
		UserID:   sess.UserID,
		Username: username,
	}, sess.ID)
}

func (ct *Controller) handleLeave(ctx context.Context, sess *runtime.Session, username, roomID string) {
	if !ct.registry.LeaveRoom(sess, roomID) {
		ct.deliverError(ctx, sess, errors.ErrNotInRoom)
		return
	}
	_ = sess.Deliver(ctx, event.RoomLeft{RoomID: roomID})
	ct.dispatcher.BroadcastRoom(ctx, roomID, event.MemberLeft{
		RoomID:   roomID,
		UserID:   sess.UserID,
		Username: username,
	}, sess.ID)
}

// handleTyping relays the notice to everyone else in the room. It never
// reaches the originating session and is never persisted.
func (ct *Controller) handleTyping(ctx context.Context, sess *runtime.Session, payload typingPayload) {
	if !sess.InRoom(payload.RoomID) {
		ct.deliverError(ctx, sess, errors.ErrNotInRoom)
		return
	}
	ct.dispatcher.BroadcastRoom(ctx, payload.RoomID, event.Typing{
		RoomID:   payload.RoomID,
		UserID:   sess.UserID,
		IsTyping: payload.IsTyping,
	}, sess.ID)
}

func (ct *Controller) deliverError(ctx context.Context, sess *runtime.Session, err error) {
	_ = sess.Deliver(ctx, event.Error{Code: errorCode(err), Message: err.Error()})
}

func errorCode(err error) string {
	switch errors.HTTPStatus(err) {
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "invalid"
	default:
		return "internal"
	}
}
