package service

import (
	"context"
	"time"

	"booksearch/internal/model"
)

// AuthService pairs user signup/login with token issuance.
type AuthService struct {
	users    *UserService
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(users *UserService, secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Signup registers the user and returns a token for them.
func (s *AuthService) Signup(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	user, err := s.users.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.respond(user)
}

// Login checks credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.users.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.respond(user)
}

// Verify returns the identity carried by token
func (s *AuthService) Verify(token string) (model.Identity, bool) {
	return VerifyToken(s.secret, token)
}

func (s *AuthService) respond(user *model.User) (*model.AuthResponse, error) {
	token, err := IssueToken(s.secret, s.tokenTTL, user.Identity())
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: token, User: user.Safe()}, nil
}
