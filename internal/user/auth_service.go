package user

import (
	"context"
	"errors"

	"gomessenger/internal/common"
	"gomessenger/internal/dbmysql"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotActive      = errors.New("user is not active")
)

// AuthService resolves a LOGIN into an authenticated username. First login
// with an unknown username registers it (hashing the password when one is
// given); later logins must present the matching password or a valid session
// token.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*dbmysql.User, string, error)
	Resume(ctx context.Context, token string) (*dbmysql.User, error)
}

type authService struct {
	users  UserRepository
	tokens *common.TokenIssuer
}

func NewAuthService(users UserRepository, tokens *common.TokenIssuer) AuthService {
	return &authService{users: users, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, username, password string) (*dbmysql.User, string, error) {
	if err := common.ValidateUsername(username); err != nil {
		return nil, "", err
	}

	u, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		u, err = s.register(ctx, username, password)
		if err != nil {
			return nil, "", err
		}
	case err != nil:
		return nil, "", err
	default:
		if u.Status != "active" {
			return nil, "", ErrUserNotActive
		}
		if u.PasswordHash != "" {
			if common.CheckPassword(password, u.PasswordHash) != nil {
				return nil, "", ErrInvalidCredentials
			}
		}
	}

	if err := s.users.TouchLogin(ctx, username); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(username)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *authService) Resume(ctx context.Context, token string) (*dbmysql.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, claims.Username)
	if err != nil {
		return nil, err
	}
	if u.Status != "active" {
		return nil, ErrUserNotActive
	}
	return u, nil
}

func (s *authService) register(ctx context.Context, username, password string) (*dbmysql.User, error) {
	u := &dbmysql.User{Username: username, Status: "active"}
	if password != "" {
		hashed, err := common.HashPassword(password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hashed
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
