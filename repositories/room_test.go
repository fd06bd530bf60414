package repositories

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"roomchat/domain"
	"roomchat/errors"
)

func TestRoomRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openTestDB(t))
	creator := uuid.NewString()

	created, err := repo.CreateRoom(domain.Room{
		Name:         "general",
		CreatorID:    creator,
		Participants: []string{creator},
	})
	req.NoError(err)
	req.NotEmpty(created.ID)

	fetched, err := repo.GetRoomByID(created.ID)
	req.NoError(err)
	req.Equal(created, fetched)
	req.True(fetched.HasParticipant(creator))
}

func TestRoomRepository_ListPublicRooms(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openTestDB(t))
	creator := uuid.NewString()

	_, err := repo.CreateRoom(domain.Room{Name: "public", CreatorID: creator, Participants: []string{creator}})
	req.NoError(err)
	_, err = repo.CreateRoom(domain.Room{Name: "hidden", IsPrivate: true, CreatorID: creator, Participants: []string{creator}})
	req.NoError(err)

	rooms, err := repo.ListPublicRooms()
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal("public", rooms[0].Name)
}

func TestRoomRepository_ParticipantLifecycle(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openTestDB(t))
	creator := uuid.NewString()
	joiner := uuid.NewString()

	room, err := repo.CreateRoom(domain.Room{Name: "general", CreatorID: creator, Participants: []string{creator}})
	req.NoError(err)

	// When a second user joins
	updated, err := repo.AddParticipant(room.ID, joiner)
	req.NoError(err)
	req.ElementsMatch([]string{creator, joiner}, updated.Participants)

	// Then joining again is a conflict, not a silent success
	_, err = repo.AddParticipant(room.ID, joiner)
	req.ErrorIs(err, errors.ErrAlreadyParticipant)

	// And leaving removes only that user
	updated, err = repo.RemoveParticipant(room.ID, joiner)
	req.NoError(err)
	req.Equal([]string{creator}, updated.Participants)

	// And leaving when not a participant is an error
	_, err = repo.RemoveParticipant(room.ID, joiner)
	req.ErrorIs(err, errors.ErrNotInRoom)
}

func TestRoomRepository_UnknownRoom(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openTestDB(t))

	_, err := repo.GetRoomByID("missing")
	req.ErrorIs(err, errors.ErrRoomNotFound)

	_, err = repo.AddParticipant("missing", uuid.NewString())
	req.ErrorIs(err, errors.ErrRoomNotFound)

	_, err = repo.RemoveParticipant("missing", uuid.NewString())
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRoomRepository_ConcurrentJoinsLoseNoEntry(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openTestDB(t))
	creator := uuid.NewString()

	room, err := repo.CreateRoom(domain.Room{Name: "busy", CreatorID: creator, Participants: []string{creator}})
	req.NoError(err)

	const joiners = 16
	ids := make([]string, joiners)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = repo.AddParticipant(room.ID, id)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		req.NoError(err)
	}

	final, err := repo.GetRoomByID(room.ID)
	req.NoError(err)
	req.ElementsMatch(append([]string{creator}, ids...), final.Participants)
}
