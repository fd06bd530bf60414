//go:generate go run go.uber.org/mock/mockgen -source=room_service.go -destination=../mocks/mock_room_service.go -package=mocks
package services

import (
	"log/slog"
	"strings"

	"roomchat/domain"
	"roomchat/errors"
	"roomchat/repositories"
	"roomchat/runtime"
)

type IRoomService interface {
	CreateRoom(creatorID, name, description string, isPrivate bool) (domain.Room, error)
	GetRoom(roomID string) (domain.Room, error)
	ListPublicRooms() ([]domain.Room, error)
	Join(userID, roomID string) (domain.Room, error)
	Leave(userID, roomID string) (domain.Room, error)
	CanReadRoom(userID, roomID string) error
}

type RoomService struct {
	roomRepository repositories.IRoomRepository
	registry       *runtime.Registry
	log            *slog.Logger
}

func NewRoomService(repo repositories.IRoomRepository, registry *runtime.Registry, log *slog.Logger) IRoomService {
	return &RoomService{roomRepository: repo, registry: registry, log: log}
}

// CreateRoom persists a room with the creator as its first participant.
func (s *RoomService) CreateRoom(creatorID, name, description string, isPrivate bool) (domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Room{}, errors.ErrValidation
	}

	room, err := s.roomRepository.CreateRoom(domain.Room{
		Name:         name,
		Description:  description,
		IsPrivate:    isPrivate,
		CreatorID:    creatorID,
		Participants: []string{creatorID},
	})
	if err != nil {
		return domain.Room{}, err
	}
	s.log.Info("room created", "room_id", room.ID, "creator_id", creatorID, "private", isPrivate)
	return room, nil
}

func (s *RoomService) GetRoom(roomID string) (domain.Room, error) {
	return s.roomRepository.GetRoomByID(roomID)
}

func (s *RoomService) ListPublicRooms() ([]domain.Room, error) {
	return s.roomRepository.ListPublicRooms()
}

// Join makes the user a durable participant. Joining a room twice is a
// conflict, not a silent success.
func (s *RoomService) Join(userID, roomID string) (domain.Room, error) {
	return s.roomRepository.AddParticipant(roomID, userID)
}

// Leave removes the user from the durable participant set and detaches
// every live session the user has in the room.
func (s *RoomService) Leave(userID, roomID string) (domain.Room, error) {
	room, err := s.roomRepository.RemoveParticipant(roomID, userID)
	if err != nil {
		return domain.Room{}, err
	}
	if kicked := s.registry.KickUser(roomID, userID); len(kicked) > 0 {
		s.log.Debug("live sessions detached", "room_id", roomID, "user_id", userID, "sessions", len(kicked))
	}
	return room, nil
}

// CanReadRoom reports whether the user may read the room's messages and
// events. Only durable participants may.
func (s *RoomService) CanReadRoom(userID, roomID string) error {
	room, err := s.roomRepository.GetRoomByID(roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(userID) {
		return errors.ErrNotParticipant
	}
	return nil
}
