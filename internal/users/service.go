package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/config"
	"github.com/pimtong/fieldworks-backend/pkg/db"
	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
	"github.com/pimtong/fieldworks-backend/pkg/security"
)

type usersRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByTelegramID(ctx context.Context, telegramID string) (*models.User, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, int64, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
	LinkTelegramID(ctx context.Context, id uint, telegramID string) error
	Delete(ctx context.Context, id uint) error
}

// Service exposes account operations.
type Service interface {
	Create(ctx context.Context, input CreateUserInput) (*UserDTO, error)
	GetByID(ctx context.Context, id uint) (*UserDTO, error)
	List(ctx context.Context, params pagination.Params) ([]UserDTO, pagination.Page, error)
	Update(ctx context.Context, id uint, input UpdateUserInput) (*UserDTO, error)
	Delete(ctx context.Context, id uint) error
	VerifyCredentials(ctx context.Context, username, password string) (*UserDTO, error)
	ResolveByTelegramID(ctx context.Context, telegramID string) (*UserDTO, error)
	LinkTelegramID(ctx context.Context, username, password, telegramID string) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
}

type service struct {
	repo        usersRepository
	passwordCfg config.PasswordConfig
}

// NewService builds a users service with the provided repository.
func NewService(repo usersRepository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         input.Role,
		TeamID:       input.TeamID,
		PhoneNumber:  input.PhoneNumber,
		Email:        input.Email,
		IsActive:     true,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return FromModel(created), nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*UserDTO, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]UserDTO, pagination.Page, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	dtos := make([]UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, pagination.NewPage(params, total), nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateUserInput) (*UserDTO, error) {
	if _, err := s.findUser(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		updates["role"] = *input.Role
	}
	if input.ClearTeam {
		updates["team_id"] = nil
	} else if input.TeamID != nil {
		updates["team_id"] = *input.TeamID
	}
	if input.PhoneNumber != nil {
		updates["phone_number"] = *input.PhoneNumber
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.findUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	return nil
}

// VerifyCredentials authenticates a username/password pair. Failures are
// indistinguishable to the caller whether the account is missing, inactive,
// or the password is wrong.
func (s *service) VerifyCredentials(ctx context.Context, username, password string) (*UserDTO, error) {
	invalid := pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	if !user.IsActive {
		return nil, invalid
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalid
	}
	return FromModel(user), nil
}

func (s *service) ResolveByTelegramID(ctx context.Context, telegramID string) (*UserDTO, error) {
	trimmed := strings.TrimSpace(telegramID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "telegram id is required")
	}

	user, err := s.repo.FindByTelegramID(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no account linked to this chat")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find linked user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no account linked to this chat")
	}
	return FromModel(user), nil
}

// LinkTelegramID authenticates the credentials and binds the chat identity
// to the account. Re-linking an already linked account moves it to the new
// chat.
func (s *service) LinkTelegramID(ctx context.Context, username, password, telegramID string) (*UserDTO, error) {
	trimmed := strings.TrimSpace(telegramID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "telegram id is required")
	}

	dto, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if err := s.repo.LinkTelegramID(ctx, dto.ID, trimmed); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "chat already linked to another account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link telegram id")
	}

	dto.TelegramID = &trimmed
	return dto, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password hash")
	}
	return nil
}

func (s *service) findUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	return user, nil
}
