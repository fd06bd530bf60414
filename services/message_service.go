//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"

	"roomchat/domain"
	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/moderation"
	"roomchat/observability"
	"roomchat/repositories"
	"roomchat/runtime"
)

const maxMessageLength = 2000

type IMessageService interface {
	SendRoomMessage(ctx context.Context, senderID, roomID, content string) (domain.Message, error)
	SendPrivateMessage(ctx context.Context, senderID, recipientID, content string) (domain.Message, error)
	MarkAsRead(userID, messageID string) (domain.Message, error)
	ListRoomMessages(userID, roomID string) ([]domain.Message, error)
	ListPrivateMessages(userID string) ([]domain.Message, error)
}

type MessageService struct {
	messageRepository repositories.IMessageRepository
	userRepository    repositories.IUserRepository
	rooms             IRoomService
	dispatcher        *runtime.Dispatcher
	moderator         moderation.Moderator
	metrics           observability.Recorder
	log               *slog.Logger
}

func NewMessageService(
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	rooms IRoomService,
	dispatcher *runtime.Dispatcher,
	moderator moderation.Moderator,
	metrics observability.Recorder,
	log *slog.Logger,
) IMessageService {
	return &MessageService{
		messageRepository: messages,
		userRepository:    users,
		rooms:             rooms,
		dispatcher:        dispatcher,
		moderator:         moderator,
		metrics:           metrics,
		log:               log,
	}
}

// SendRoomMessage persists the message and fans it out to the room's live
// sessions, the sender's included. Persistence and fan-out happen inside
// the room's exclusive section, so everyone sees messages in the same
// order and a membership change lands strictly before or after the whole
// step.
func (s *MessageService) SendRoomMessage(ctx context.Context, senderID, roomID, content string) (domain.Message, error) {
	content, err := s.sanitize(senderID, content)
	if err != nil {
		return domain.Message{}, err
	}
	if err := s.rooms.CanReadRoom(senderID, roomID); err != nil {
		return domain.Message{}, err
	}

	var msg domain.Message
	_, err = s.dispatcher.PublishRoom(ctx, roomID, "", func() (event.Event, error) {
		msg, err = s.messageRepository.CreateMessage(domain.Message{
			Content:  content,
			SenderID: senderID,
			RoomID:   roomID,
		})
		if err != nil {
			return nil, err
		}
		s.metrics.MessagePersisted()
		return event.MessageReceived{
			MessageID: msg.ID,
			RoomID:    msg.RoomID,
			SenderID:  msg.SenderID,
			Content:   msg.Content,
			SentAt:    msg.CreatedAt,
		}, nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// SendPrivateMessage persists a direct message and delivers it to the
// recipient's live sessions. Sender and recipient need no common room.
func (s *MessageService) SendPrivateMessage(ctx context.Context, senderID, recipientID, content string) (domain.Message, error) {
	content, err := s.sanitize(senderID, content)
	if err != nil {
		return domain.Message{}, err
	}
	if _, err := s.userRepository.GetUserByID(recipientID); err != nil {
		return domain.Message{}, err
	}

	msg, err := s.messageRepository.CreateMessage(domain.Message{
		Content:     content,
		SenderID:    senderID,
		RecipientID: recipientID,
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.metrics.MessagePersisted()

	s.dispatcher.BroadcastDirect(ctx, recipientID, event.PrivateMessage{
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Content:     msg.Content,
		SentAt:      msg.CreatedAt,
	})
	return msg, nil
}

// MarkAsRead flips the read flag of a direct message. Only the recipient
// may; marking twice succeeds without rewriting anything.
func (s *MessageService) MarkAsRead(userID, messageID string) (domain.Message, error) {
	msg, err := s.messageRepository.GetMessageByID(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if !msg.IsPrivate() || msg.RecipientID != userID {
		return domain.Message{}, errors.ErrNotRecipient
	}
	return s.messageRepository.MarkRead(messageID)
}

// ListRoomMessages returns the room's history, oldest first, to durable
// participants only.
func (s *MessageService) ListRoomMessages(userID, roomID string) ([]domain.Message, error) {
	if err := s.rooms.CanReadRoom(userID, roomID); err != nil {
		return nil, err
	}
	return s.messageRepository.ListRoomMessages(roomID)
}

// ListPrivateMessages returns every direct message the user sent or
// received, oldest first.
func (s *MessageService) ListPrivateMessages(userID string) ([]domain.Message, error) {
	return s.messageRepository.ListPrivateMessages(userID)
}

// sanitize validates the content and censors forbidden words. Flagged
// content is logged with its detected language for moderation follow-up.
func (s *MessageService) sanitize(senderID, content string) (string, error) {
	if strings.TrimSpace(content) == "" || len([]rune(content)) > maxMessageLength {
		return "", errors.ErrValidation
	}

	sanitized, foundWords := s.moderator.Censor(content)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(content)
		s.log.Warn("content censored",
			"sender_id", senderID,
			"lang", info.Lang.Iso6391(),
			"words", len(foundWords),
		)
	}
	return sanitized, nil
}
