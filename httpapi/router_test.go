package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roomchat/auth"
	"roomchat/domain"
	"roomchat/errors"
	"roomchat/mocks"
)

type apiFixture struct {
	authService    *mocks.MockIAuthService
	roomService    *mocks.MockIRoomService
	messageService *mocks.MockIMessageService
	tokens         *auth.TokenManager
	router         *gin.Engine
}

func newAPIFixture(t *testing.T, ctrl *gomock.Controller) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &apiFixture{
		authService:    mocks.NewMockIAuthService(ctrl),
		roomService:    mocks.NewMockIRoomService(ctrl),
		messageService: mocks.NewMockIMessageService(ctrl),
		tokens:         auth.NewTokenManager("test-secret", time.Hour),
	}
	f.router = NewRouter(
		NewAuthMiddleware(f.tokens),
		NewUserHandler(f.authService),
		NewRoomHandler(f.roomService),
		NewMessageHandler(f.messageService),
		func(c *gin.Context) { c.Status(http.StatusOK) },
		http.NotFoundHandler(),
	)
	return f
}

func (f *apiFixture) request(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		token, err := f.tokens.Generate(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RejectsMissingToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	f := newAPIFixture(t, ctrl)

	for _, path := range []string{"/api/users/me", "/api/rooms", "/api/messages/private"} {
		rec := f.request(t, http.MethodGet, path, "", nil)
		req.Equal(http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	f := newAPIFixture(t, ctrl)

	f.authService.EXPECT().
		Register("alice", "alice@example.com", "ComplexPass123!").
		Return(domain.User{ID: "uuid-1", Username: "alice"}, "a.jwt.token", nil)

	rec := f.request(t, http.MethodPost, "/api/users/register", "", RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "ComplexPass123!",
	})

	req.Equal(http.StatusCreated, rec.Code)
	var resp AuthResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("a.jwt.token", resp.Token)
	req.Equal("uuid-1", resp.User.ID)
}

func TestRouter_RegisterConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	f := newAPIFixture(t, ctrl)

	f.authService.EXPECT().
		Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.User{}, "", errors.ErrUserAlreadyExists)

	rec := f.request(t, http.MethodPost, "/api/users/register", "", RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "ComplexPass123!",
	})
	req.Equal(http.StatusConflict, rec.Code)
}

func TestRouter_JoinRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	f := newAPIFixture(t, ctrl)

	t.Run("first join succeeds", func(t *testing.T) {
		f.roomService.EXPECT().
			Join("uuid-1", "room-1").
			Return(domain.Room{ID: "room-1", Participants: []string{"uuid-1"}}, nil)

		rec := f.request(t, http.MethodPost, "/api/rooms/room-1/join", "uuid-1", nil)
		req.Equal(http.StatusOK, rec.Code)
	})

	t.Run("second join is a conflict", func(t *testing.T) {
		f.roomService.EXPECT().
			Join("uuid-1", "room-1").
			Return(domain.Room{}, errors.ErrAlreadyParticipant)

		rec := f.request(t, http.MethodPost, "/api/rooms/room-1/join", "uuid-1", nil)
		req.Equal(http.StatusConflict, rec.Code)
	})
}

func TestRouter_LeaveRoomNotParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	f := newAPIFixture(t, ctrl)

	f.roomService.EXPECT().
		Leave("uuid-1", "room-1").
		Return(domain.Room{}, errors.ErrNotInRoom)

	rec := f.request(t, http.MethodPost, "/api/rooms/room-1/leave", "uuid-1", nil)
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestRouter_SendMessageTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	f := newAPIFixture(t, ctrl)

	t.Run("room message", func(t *testing.T) {
		f.messageService.EXPECT().
			SendRoomMessage(gomock.Any(), "uuid-1", "room-1", "hello").
			Return(domain.Message{ID: "msg-1", RoomID: "room-1", Content: "hello"}, nil)

		rec := f.request(t, http.MethodPost, "/api/messages", "uuid-1", SendMessageRequest{
			Content: "hello", RoomID: "room-1",
		})
		req.Equal(http.StatusCreated, rec.Code)
	})

	t.Run("private message", func(t *testing.T) {
		f.messageService.EXPECT().
			SendPrivateMessage(gomock.Any(), "uuid-1", "uuid-2", "psst").
			Return(domain.Message{ID: "msg-2", RecipientID: "uuid-2", Content: "psst"}, nil)

		rec := f.request(t, http.MethodPost, "/api/messages", "uuid-1", SendMessageRequest{
			Content: "psst", RecipientID: "uuid-2",
		})
		req.Equal(http.StatusCreated, rec.Code)
	})

	t.Run("both targets rejected", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/messages", "uuid-1", SendMessageRequest{
			Content: "hi", RoomID: "room-1", RecipientID: "uuid-2",
		})
		req.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("no target rejected", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/messages", "uuid-1", SendMessageRequest{Content: "hi"})
		req.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_RoomHistoryForbiddenForOutsiders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	f := newAPIFixture(t, ctrl)

	f.messageService.EXPECT().
		ListRoomMessages("stranger", "room-1").
		Return(nil, errors.ErrNotParticipant)

	rec := f.request(t, http.MethodGet, "/api/messages/room/room-1", "stranger", nil)
	req.Equal(http.StatusForbidden, rec.Code)
}

func TestRouter_MarkReadForbiddenForNonRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	f := newAPIFixture(t, ctrl)

	f.messageService.EXPECT().
		MarkAsRead("uuid-1", "msg-1").
		Return(domain.Message{}, errors.ErrNotRecipient)

	rec := f.request(t, http.MethodPatch, "/api/messages/msg-1/read", "uuid-1", nil)
	req.Equal(http.StatusForbidden, rec.Code)
}
