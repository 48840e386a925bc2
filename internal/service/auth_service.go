package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/logger"
)

// UserDirectory is the identity lookup surface. repository.UserRepository
// satisfies it.
type UserDirectory interface {
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	LinkGoogleID(ctx context.Context, userID int64, googleID string) error
}

// GoogleProfile is the subset of the identity provider's userinfo payload the
// game needs.
type GoogleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// AuthService resolves an external identity to a durable user row.
type AuthService struct {
	users UserDirectory
}

func NewAuthService(users UserDirectory) *AuthService {
	return &AuthService{users: users}
}

// ResolveGoogleUser finds the user for a Google profile, creating or linking
// as needed: match on google_id first, then attach the google_id to an
// existing row with the same email, then create a fresh user with a zero
// balance.
func (s *AuthService) ResolveGoogleUser(ctx context.Context, profile GoogleProfile) (*domain.User, error) {
	if profile.ID == "" {
		return nil, fmt.Errorf("google profile missing id")
	}

	user, err := s.users.GetByGoogleID(ctx, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if profile.Email != "" {
		user, err = s.users.GetByEmail(ctx, profile.Email)
		if err == nil {
			if err := s.users.LinkGoogleID(ctx, user.ID, profile.ID); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
			}
			user.GoogleID = profile.ID
			logger.Info("linked google identity to existing user", "user_id", user.ID)
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
	}

	user = &domain.User{
		Username: usernameFromProfile(profile),
		Email:    profile.Email,
		GoogleID: profile.ID,
		Photo:    profile.Picture,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	logger.Info("created user from google identity", "user_id", user.ID)
	return user, nil
}

func usernameFromProfile(p GoogleProfile) string {
	if p.Name != "" {
		return p.Name
	}
	if at := strings.IndexByte(p.Email, '@'); at > 0 {
		return p.Email[:at]
	}
	return "player-" + p.ID
}
