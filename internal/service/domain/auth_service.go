package domain

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/util"
)

var errBadCredentials = &service.UnauthorizedError{Message: "Invalid email or password"}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type authService struct {
	uow    repository.UnitOfWork
	tokens TokenIssuer
}

var _ AuthService = (*authService)(nil)

func NewAuthService(uow repository.UnitOfWork, tokens TokenIssuer) *authService {
	return &authService{uow: uow, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.uow.Repos().Users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !util.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, errBadCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		User:      toUserDTO(user),
	}, nil
}
