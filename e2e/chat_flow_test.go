// Package e2e exercises the full stack in process: real BadgerDB, real
// registry and dispatcher, real services. Only the network transport is
// replaced by channel-backed sinks.
package e2e

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"roomchat/auth"
	"roomchat/domain"
	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/moderation"
	"roomchat/observability"
	"roomchat/repositories"
	"roomchat/runtime"
	"roomchat/services"
)

type stack struct {
	auth     services.IAuthService
	rooms    services.IRoomService
	messages services.IMessageService
	registry *runtime.Registry
}

type client struct {
	user domain.User
	sess *runtime.Session
	ch   chan event.Event
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := runtime.NewRegistry(log)
	dispatcher := runtime.NewDispatcher(log, registry, observability.NopRecorder{})

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	require.NoError(t, err)

	users := repositories.NewUserRepository(db)
	roomRepo := repositories.NewRoomRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	tokens := auth.NewTokenManager("e2e-secret", time.Hour)

	roomService := services.NewRoomService(roomRepo, registry, log)
	return &stack{
		auth:     services.NewAuthService(users, tokens, log),
		rooms:    roomService,
		messages: services.NewMessageService(messageRepo, users, roomService, dispatcher, moderator, observability.NopRecorder{}, log),
		registry: registry,
	}
}

// connect registers an account and brings one live session online.
func (s *stack) connect(t *testing.T, username string) *client {
	t.Helper()
	user, token, err := s.auth.Register(username, username+"@example.com", "ComplexPass123!")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	c := &client{user: user, ch: make(chan event.Event, 16)}
	c.sess = runtime.NewSession(user.ID, sinkFunc(func(_ context.Context, e event.Event) error {
		select {
		case c.ch <- e:
			return nil
		default:
			return errors.ErrBackpressure
		}
	}))
	require.NoError(t, s.registry.Register(c.sess))
	return c
}

type sinkFunc func(ctx context.Context, e event.Event) error

func (f sinkFunc) Consume(ctx context.Context, e event.Event) error { return f(ctx, e) }

func (c *client) events() []event.Event {
	var out []event.Event
	for {
		select {
		case e := <-c.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

// joinLive mirrors what the socket layer does on a join_room frame.
func joinLive(t *testing.T, s *stack, c *client, roomID string) {
	t.Helper()
	require.NoError(t, s.rooms.CanReadRoom(c.user.ID, roomID))
	require.NoError(t, s.registry.JoinRoom(c.sess, roomID))
}

func TestChatFlow_LoginAfterRegister(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	registered, _, err := s.auth.Register("alice", "alice@example.com", "ComplexPass123!")
	req.NoError(err)

	// The stored hash must survive the round trip through the database,
	// or every credential check after a restart would fail
	user, token, err := s.auth.Login("alice@example.com", "ComplexPass123!")
	req.NoError(err)
	req.Equal(registered.ID, user.ID)
	req.NotEmpty(token)

	_, _, err = s.auth.Login("alice@example.com", "WrongPass123!")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestChatFlow_RoomConversation(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()

	alice := s.connect(t, "alice")
	bob := s.connect(t, "bob")

	// Alice creates the room, Bob joins durably, both go live
	room, err := s.rooms.CreateRoom(alice.user.ID, "general", "", false)
	req.NoError(err)
	_, err = s.rooms.Join(bob.user.ID, room.ID)
	req.NoError(err)
	joinLive(t, s, alice, room.ID)
	joinLive(t, s, bob, room.ID)

	// Joining durably twice is a conflict
	_, err = s.rooms.Join(bob.user.ID, room.ID)
	req.ErrorIs(err, errors.ErrAlreadyParticipant)

	// Alice talks; the forbidden word is censored on the way in
	first, err := s.messages.SendRoomMessage(ctx, alice.user.ID, room.ID, "hello everyone")
	req.NoError(err)
	_, err = s.messages.SendRoomMessage(ctx, bob.user.ID, room.ID, "what a badger!")
	req.NoError(err)

	// Both live sessions saw both messages, sender echoes included
	for _, c := range []*client{alice, bob} {
		got := c.events()
		req.Len(got, 2)
		req.Equal("hello everyone", got[0].(event.MessageReceived).Content)
		req.Equal("what a ******!", got[1].(event.MessageReceived).Content)
	}

	// History comes back oldest first, censored form persisted
	history, err := s.messages.ListRoomMessages(bob.user.ID, room.ID)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal(first.ID, history[0].ID)
	req.Equal("what a ******!", history[1].Content)

	// An outsider can read nothing and send nothing
	carol := s.connect(t, "carol")
	_, err = s.messages.ListRoomMessages(carol.user.ID, room.ID)
	req.ErrorIs(err, errors.ErrNotParticipant)
	_, err = s.messages.SendRoomMessage(ctx, carol.user.ID, room.ID, "let me in")
	req.ErrorIs(err, errors.ErrNotParticipant)
}

func TestChatFlow_LeaveCutsDelivery(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()

	alice := s.connect(t, "alice")
	bob := s.connect(t, "bob")

	room, err := s.rooms.CreateRoom(alice.user.ID, "general", "", false)
	req.NoError(err)
	_, err = s.rooms.Join(bob.user.ID, room.ID)
	req.NoError(err)
	joinLive(t, s, alice, room.ID)
	joinLive(t, s, bob, room.ID)

	// Bob leaves durably: his live session detaches with it
	_, err = s.rooms.Leave(bob.user.ID, room.ID)
	req.NoError(err)
	req.False(bob.sess.InRoom(room.ID))

	_, err = s.messages.SendRoomMessage(ctx, alice.user.ID, room.ID, "anyone here?")
	req.NoError(err)

	req.Len(alice.events(), 1)
	req.Empty(bob.events())

	// Gone durably means gone: sending and leaving again both fail
	_, err = s.messages.SendRoomMessage(ctx, bob.user.ID, room.ID, "me!")
	req.ErrorIs(err, errors.ErrNotParticipant)
	_, err = s.rooms.Leave(bob.user.ID, room.ID)
	req.ErrorIs(err, errors.ErrNotInRoom)
}

func TestChatFlow_DisconnectKeepsHistory(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()

	alice := s.connect(t, "alice")
	bob := s.connect(t, "bob")

	room, err := s.rooms.CreateRoom(alice.user.ID, "general", "", false)
	req.NoError(err)
	_, err = s.rooms.Join(bob.user.ID, room.ID)
	req.NoError(err)
	joinLive(t, s, alice, room.ID)
	joinLive(t, s, bob, room.ID)

	// Bob's connection drops; he stays a durable participant
	s.registry.Drop(bob.sess)

	sent, err := s.messages.SendRoomMessage(ctx, alice.user.ID, room.ID, "still there?")
	req.NoError(err)

	req.Len(alice.events(), 1)
	req.Empty(bob.events())

	// The message waits for him in the durable history
	history, err := s.messages.ListRoomMessages(bob.user.ID, room.ID)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(sent.ID, history[0].ID)
}

func TestChatFlow_PrivateConversation(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()

	alice := s.connect(t, "alice")
	bob := s.connect(t, "bob")

	// No common room is needed for direct messages
	sent, err := s.messages.SendPrivateMessage(ctx, alice.user.ID, bob.user.ID, "psst, bob")
	req.NoError(err)

	got := bob.events()
	req.Len(got, 1)
	delivered := got[0].(event.PrivateMessage)
	req.Equal(sent.ID, delivered.MessageID)
	req.Equal("psst, bob", delivered.Content)

	// Only the recipient may mark it read; doing it twice still succeeds
	_, err = s.messages.MarkAsRead(alice.user.ID, sent.ID)
	req.ErrorIs(err, errors.ErrNotRecipient)

	marked, err := s.messages.MarkAsRead(bob.user.ID, sent.ID)
	req.NoError(err)
	req.True(marked.IsRead)
	again, err := s.messages.MarkAsRead(bob.user.ID, sent.ID)
	req.NoError(err)
	req.True(again.IsRead)

	// Both sides see the exchange in their private history
	reply, err := s.messages.SendPrivateMessage(ctx, bob.user.ID, alice.user.ID, "hey alice")
	req.NoError(err)
	for _, c := range []*client{alice, bob} {
		history, err := s.messages.ListPrivateMessages(c.user.ID)
		req.NoError(err)
		req.Len(history, 2)
		req.Equal(sent.ID, history[0].ID)
		req.Equal(reply.ID, history[1].ID)
	}
}
