//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"roomchat/domain"
	"roomchat/errors"
)

type IMessageRepository interface {
	CreateMessage(msg domain.Message) (domain.Message, error)
	GetMessageByID(id string) (domain.Message, error)
	ListRoomMessages(roomID string) ([]domain.Message, error)
	ListPrivateMessages(userID string) ([]domain.Message, error)
	MarkRead(id string) (domain.Message, error)
}

type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) IMessageRepository {
	return &MessageRepository{db: db}
}

// The canonical record lives under msg:id:<uuid>. Index keys embed the
// padded creation timestamp so a prefix scan yields chronological order,
// with the uuid as collision disconnector for same-nanosecond messages:
//
//	msg:room:<roomID>:<%019d nano>:<uuid>  room history
//	msg:in:<userID>:<%019d nano>:<uuid>    private, addressed to user
//	msg:out:<userID>:<%019d nano>:<uuid>   private, sent by user
//
// Index values hold the message id; only the canonical record is rewritten
// when the read flag flips.
func messageKey(id string) []byte { return []byte("msg:id:" + id) }

func roomIndexKey(roomID string, at time.Time, id string) []byte {
	return []byte("msg:room:" + roomID + ":" + padTime(at) + ":" + id)
}

func inboxIndexKey(userID string, at time.Time, id string) []byte {
	return []byte("msg:in:" + userID + ":" + padTime(at) + ":" + id)
}

func outboxIndexKey(userID string, at time.Time, id string) []byte {
	return []byte("msg:out:" + userID + ":" + padTime(at) + ":" + id)
}

func (m *MessageRepository) CreateMessage(msg domain.Message) (domain.Message, error) {
	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.UpdatedAt = msg.CreatedAt

	err := runUpdate(m.db, func(txn *badger.Txn) error {
		if err := setJSON(txn, messageKey(msg.ID), msg); err != nil {
			return err
		}
		if msg.RoomID != "" {
			return txn.Set(roomIndexKey(msg.RoomID, msg.CreatedAt, msg.ID), []byte(msg.ID))
		}
		if err := txn.Set(inboxIndexKey(msg.RecipientID, msg.CreatedAt, msg.ID), []byte(msg.ID)); err != nil {
			return err
		}
		return txn.Set(outboxIndexKey(msg.SenderID, msg.CreatedAt, msg.ID), []byte(msg.ID))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (m *MessageRepository) GetMessageByID(id string) (domain.Message, error) {
	var msg domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, messageKey(id), &msg)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ListRoomMessages returns a room's history ordered by creation time
// ascending; the padded-timestamp keys make the scan order the answer.
func (m *MessageRepository) ListRoomMessages(roomID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		ids, err := scanIndex(txn, []byte("msg:room:"+roomID+":"))
		if err != nil {
			return err
		}
		messages, err = resolve(txn, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListPrivateMessages returns the union of messages the user sent with a
// recipient and messages addressed to the user, ordered by creation time
// ascending.
func (m *MessageRepository) ListPrivateMessages(userID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		inbox, err := scanIndex(txn, []byte("msg:in:"+userID+":"))
		if err != nil {
			return err
		}
		outbox, err := scanIndex(txn, []byte("msg:out:"+userID+":"))
		if err != nil {
			return err
		}

		// A self-addressed message appears in both indexes once.
		seen := make(map[string]struct{}, len(inbox)+len(outbox))
		var ids []string
		for _, id := range append(inbox, outbox...) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}

		messages, err = resolve(txn, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// MarkRead flips the read flag. The transition is one-way: marking an
// already-read message rewrites nothing and still succeeds.
func (m *MessageRepository) MarkRead(id string) (domain.Message, error) {
	var msg domain.Message
	err := runUpdate(m.db, func(txn *badger.Txn) error {
		msg = domain.Message{}
		if err := getJSON(txn, messageKey(id), &msg); err != nil {
			return err
		}
		if msg.IsRead {
			return nil
		}
		msg.IsRead = true
		msg.UpdatedAt = time.Now().UTC()
		return setJSON(txn, messageKey(id), msg)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func scanIndex(txn *badger.Txn, prefix []byte) ([]string, error) {
	var ids []string
	options := badger.DefaultIteratorOptions
	it := txn.NewIterator(options)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var id string
		if err := it.Item().Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolve(txn *badger.Txn, ids []string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		var msg domain.Message
		if err := getJSON(txn, messageKey(id), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
