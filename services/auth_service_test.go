package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roomchat/auth"
	"roomchat/domain"
	"roomchat/errors"
	"roomchat/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", 24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, testTokens(), testLogger())

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		password := "ComplexPass123!"

		// The repository must receive a hash, never the plain password
		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			DoAndReturn(func(user domain.User) (domain.User, error) {
				req.Equal("alice", user.Username)
				req.Equal("alice@example.com", user.Email)
				req.NotEqual(password, user.PasswordHash)
				req.NotEmpty(user.PasswordHash)
				user.ID = "user-uuid"
				return user, nil
			}).
			Times(1)

		user, token, err := svc.Register("alice", "alice@example.com", password)

		req.NoError(err)
		req.Equal("user-uuid", user.ID)
		req.NotEmpty(token)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should never be called
		mockRepo.EXPECT().CreateUser(gomock.Any()).Times(0)

		_, token, err := svc.Register("alice", "alice@example.com", "simple")

		req.ErrorIs(err, errors.ErrValidation)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			Return(domain.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, _, err := svc.Register("alice", "duplicate@example.com", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := testTokens()
	svc := NewAuthService(mockRepo, tokens, testLogger())

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"
		password := "Secret123456!"

		hashedPassword, _ := auth.HashPassword(password)
		storedUser := domain.User{
			ID:           "uuid-123",
			Email:        email,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().GetUserByEmail(email).Return(storedUser, nil).Times(1)
		mockRepo.EXPECT().SetOnline(storedUser.ID, true).Return(nil).Times(1)

		user, token, err := svc.Login(email, password)

		req.NoError(err)
		req.True(user.IsOnline)

		userID, err := tokens.Verify(token)
		req.NoError(err)
		req.Equal(storedUser.ID, userID)
	})

	t.Run("should return invalid credentials when password does not match", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"

		hashedPassword, _ := auth.HashPassword("CorrectPassword123!")
		storedUser := domain.User{ID: "uuid-123", Email: email, PasswordHash: hashedPassword}

		mockRepo.EXPECT().GetUserByEmail(email).Return(storedUser, nil).Times(1)

		_, _, err := svc.Login(email, "WrongPassword123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("unknown@example.com").
			Return(domain.User{}, errors.ErrUserNotFound).
			Times(1)

		_, _, err := svc.Login("unknown@example.com", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}

func TestAuthService_LogoutAndGetMe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, testTokens(), testLogger())

	mockRepo.EXPECT().SetOnline("uuid-123", false).Return(nil).Times(1)
	req.NoError(svc.Logout("uuid-123"))

	stored := domain.User{ID: "uuid-123", Username: "alice"}
	mockRepo.EXPECT().GetUserByID("uuid-123").Return(stored, nil).Times(1)
	user, err := svc.GetMe("uuid-123")
	req.NoError(err)
	req.Equal(stored, user)
}
