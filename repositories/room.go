//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"roomchat/domain"
	"roomchat/errors"
)

type IRoomRepository interface {
	CreateRoom(room domain.Room) (domain.Room, error)
	GetRoomByID(id string) (domain.Room, error)
	ListPublicRooms() ([]domain.Room, error)
	AddParticipant(roomID, userID string) (domain.Room, error)
	RemoveParticipant(roomID, userID string) (domain.Room, error)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) IRoomRepository {
	return &RoomRepository{db: db}
}

func roomKey(id string) []byte { return []byte("room:" + id) }

func (r *RoomRepository) CreateRoom(room domain.Room) (domain.Room, error) {
	room.ID = uuid.NewString()
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	err := runUpdate(r.db, func(txn *badger.Txn) error {
		return setJSON(txn, roomKey(room.ID), room)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) GetRoomByID(id string) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, roomKey(id), &room)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) ListPublicRooms() ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var room domain.Room
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &room)
			}); err != nil {
				return err
			}
			if !room.IsPrivate {
				rooms = append(rooms, room)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// AddParticipant appends userID to the durable participant set. The
// read-modify-write runs in one transaction and is retried on conflict, so
// two concurrent joins to the same room never lose an entry.
func (r *RoomRepository) AddParticipant(roomID, userID string) (domain.Room, error) {
	return r.mutateParticipants(roomID, func(room *domain.Room) error {
		if !room.AddParticipant(userID) {
			return errors.ErrAlreadyParticipant
		}
		return nil
	})
}

// RemoveParticipant deletes userID from the durable participant set.
// Leaving a room the user is not in is an error, not a no-op.
func (r *RoomRepository) RemoveParticipant(roomID, userID string) (domain.Room, error) {
	return r.mutateParticipants(roomID, func(room *domain.Room) error {
		if !room.RemoveParticipant(userID) {
			return errors.ErrNotInRoom
		}
		return nil
	})
}

func (r *RoomRepository) mutateParticipants(roomID string, mutate func(*domain.Room) error) (domain.Room, error) {
	var room domain.Room
	err := runUpdate(r.db, func(txn *badger.Txn) error {
		room = domain.Room{}
		if err := getJSON(txn, roomKey(roomID), &room); err != nil {
			return err
		}
		if err := mutate(&room); err != nil {
			return err
		}
		room.UpdatedAt = time.Now().UTC()
		return setJSON(txn, roomKey(roomID), room)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}
