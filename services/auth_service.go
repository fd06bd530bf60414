//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"
	"log/slog"

	"roomchat/auth"
	"roomchat/domain"
	"roomchat/errors"
	"roomchat/repositories"
)

type IAuthService interface {
	Register(username, email, password string) (domain.User, string, error)
	Login(email, password string) (domain.User, string, error)
	Logout(userID string) error
	GetMe(userID string) (domain.User, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
	log            *slog.Logger
}

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenManager, log *slog.Logger) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens, log: log}
}

// Register creates an account and returns it with a fresh token.
func (s *AuthService) Register(username, email, password string) (domain.User, string, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}

	// Validate before any expensive cryptographic operation
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	// Hashing happens here so the repository never sees a plain password
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
func (s *AuthService) Login(email, password string) (domain.User, string, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	if err := s.userRepository.SetOnline(user.ID, true); err != nil {
		s.log.Warn("presence update failed", "user_id", user.ID, "error", err)
	} else {
		user.IsOnline = true
	}

	return user, token, nil
}

// Logout clears the presence flag. The token itself stays valid until it
// expires; there is no server-side revocation list.
func (s *AuthService) Logout(userID string) error {
	return s.userRepository.SetOnline(userID, false)
}

func (s *AuthService) GetMe(userID string) (domain.User, error) {
	return s.userRepository.GetUserByID(userID)
}
