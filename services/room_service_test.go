package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roomchat/contract"
	"roomchat/domain"
	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/mocks"
	"roomchat/runtime"
)

// sinkFunc adapts a function to contract.EventSink.
type sinkFunc func(ctx context.Context, e event.Event) error

func (f sinkFunc) Consume(ctx context.Context, e event.Event) error { return f(ctx, e) }

var discardSink contract.EventSink = sinkFunc(func(context.Context, event.Event) error { return nil })

func TestRoomService_CreateRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIRoomRepository(ctrl)
	svc := NewRoomService(mockRepo, runtime.NewRegistry(testLogger()), testLogger())

	t.Run("should persist the creator as first participant", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateRoom(gomock.Any()).
			DoAndReturn(func(room domain.Room) (domain.Room, error) {
				req.Equal("general", room.Name)
				req.Equal([]string{"creator-1"}, room.Participants)
				room.ID = "room-1"
				return room, nil
			}).
			Times(1)

		room, err := svc.CreateRoom("creator-1", "general", "everything", false)

		req.NoError(err)
		req.Equal("room-1", room.ID)
	})

	t.Run("should reject a blank name without touching storage", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().CreateRoom(gomock.Any()).Times(0)

		_, err := svc.CreateRoom("creator-1", "   ", "", false)

		req.ErrorIs(err, errors.ErrValidation)
	})
}

func TestRoomService_CanReadRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIRoomRepository(ctrl)
	svc := NewRoomService(mockRepo, runtime.NewRegistry(testLogger()), testLogger())

	room := domain.Room{ID: "room-1", Participants: []string{"member-1"}}

	t.Run("participant may read", func(t *testing.T) {
		mockRepo.EXPECT().GetRoomByID("room-1").Return(room, nil)
		require.NoError(t, svc.CanReadRoom("member-1", "room-1"))
	})

	t.Run("outsider may not", func(t *testing.T) {
		mockRepo.EXPECT().GetRoomByID("room-1").Return(room, nil)
		require.ErrorIs(t, svc.CanReadRoom("stranger", "room-1"), errors.ErrNotParticipant)
	})

	t.Run("unknown room propagates", func(t *testing.T) {
		mockRepo.EXPECT().GetRoomByID("missing").Return(domain.Room{}, errors.ErrRoomNotFound)
		require.ErrorIs(t, svc.CanReadRoom("member-1", "missing"), errors.ErrRoomNotFound)
	})
}

func TestRoomService_LeaveDetachesLiveSessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	mockRepo := mocks.NewMockIRoomRepository(ctrl)
	registry := runtime.NewRegistry(testLogger())
	svc := NewRoomService(mockRepo, registry, testLogger())

	sess := runtime.NewSession("member-1", discardSink)
	req.NoError(registry.Register(sess))
	req.NoError(registry.JoinRoom(sess, "room-1"))

	mockRepo.EXPECT().
		RemoveParticipant("room-1", "member-1").
		Return(domain.Room{ID: "room-1"}, nil).
		Times(1)

	_, err := svc.Leave("member-1", "room-1")

	req.NoError(err)
	req.False(sess.InRoom("room-1"))
	req.Equal(0, registry.MemberCount("room-1"))
}

func TestRoomService_LeaveNotParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	mockRepo := mocks.NewMockIRoomRepository(ctrl)
	svc := NewRoomService(mockRepo, runtime.NewRegistry(testLogger()), testLogger())

	mockRepo.EXPECT().
		RemoveParticipant("room-1", "stranger").
		Return(domain.Room{}, errors.ErrNotInRoom).
		Times(1)

	_, err := svc.Leave("stranger", "room-1")
	req.ErrorIs(err, errors.ErrNotInRoom)
}
