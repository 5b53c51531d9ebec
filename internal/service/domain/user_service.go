package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/util"
)

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	GetAll(ctx context.Context) ([]UserDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// EnsureAdmin creates the bootstrap administrator unless the email is already registered.
	EnsureAdmin(ctx context.Context, email, username, password string) (bool, error)
}

type userService struct {
	uow      repository.UnitOfWork
	hashCost int
}

var _ UserService = (*userService)(nil)

func NewUserService(uow repository.UnitOfWork) *userService {
	return &userService{uow: uow, hashCost: bcrypt.DefaultCost}
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	hash, err := util.HashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
	}
	err = s.uow.Do(ctx, func(r *repository.Repositories) error {
		if taken, err := emailTaken(ctx, r, user.Email, uuid.Nil); err != nil {
			return err
		} else if taken {
			return service.NewAppError("Email already registered")
		}
		_, err := r.Users.GetByUsername(ctx, user.Username)
		if err == nil {
			return service.NewAppError("Username already taken")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.Users.Create(ctx, user)
	})
	if index, dup := repository.DuplicateKey(err); dup {
		if index == repository.UsersUsernameIndex {
			return nil, service.NewAppError("Username already taken")
		}
		return nil, service.NewAppError("Email already registered")
	}
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(user)
	return &dto, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.uow.Repos().Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User", id)
	}
	dto := toUserDTO(user)
	return &dto, nil
}

func (s *userService) GetAll(ctx context.Context) ([]UserDTO, error) {
	users, err := s.uow.Repos().Users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	return out, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	var user *model.User
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		user, err = r.Users.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "User", id)
		}
		if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
			taken, err := emailTaken(ctx, r, email, id)
			if err != nil {
				return err
			}
			if taken {
				return service.NewAppError("Email already registered by another user")
			}
			user.Email = email
		}
		if fullName := strings.TrimSpace(req.FullName); fullName != "" {
			user.FullName = fullName
		}
		if req.NewPassword != "" {
			if req.CurrentPassword == "" || !util.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
				return service.NewAppError("Invalid current password")
			}
			hash, err := util.HashPassword(req.NewPassword, s.hashCost)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}
		return r.Users.Update(ctx, user)
	})
	if _, dup := repository.DuplicateKey(err); dup {
		return nil, service.NewAppError("Email already registered by another user")
	}
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(user)
	return &dto, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Users.GetByID(ctx, id); err != nil {
			return notFound(err, "User", id)
		}
		booked, err := r.Reservations.CountByUser(ctx, id)
		if err != nil {
			return err
		}
		if booked > 0 {
			return service.NewAppError("User has %d reservation(s) and cannot be deleted", booked)
		}
		return notFound(r.Users.Delete(ctx, id), "User", id)
	})
}

func (s *userService) EnsureAdmin(ctx context.Context, email, username, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	created := false
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		taken, err := emailTaken(ctx, r, email, uuid.Nil)
		if err != nil || taken {
			return err
		}
		hash, err := util.HashPassword(password, s.hashCost)
		if err != nil {
			return err
		}
		if username == "" {
			username = "admin"
		}
		created = true
		return r.Users.Create(ctx, &model.User{
			Username:     username,
			Email:        email,
			FullName:     "Administrator",
			PasswordHash: hash,
			IsAdmin:      true,
		})
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func emailTaken(ctx context.Context, r *repository.Repositories, email string, self uuid.UUID) (bool, error) {
	existing, err := r.Users.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != self, nil
}
