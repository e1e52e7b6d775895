package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	"anoa.com/jobapp/internal/modules/user/dto"
	"anoa.com/jobapp/internal/modules/user/repository"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/database"
)

var (
	ErrUsernameTaken = fmt.Errorf("Username already taken: %w", apperror.ErrDuplicate)
	ErrEmailInUse    = fmt.Errorf("Email already in use: %w", apperror.ErrDuplicate)
)

// Registrar creates accounts. It is shared by public registration and the
// admin console so both enforce the same uniqueness and hashing rules.
type Registrar interface {
	Register(ctx context.Context, input dto.RegisterInput, allowed ...entity.Role) (*entity.User, error)
	EnsureAvailable(ctx context.Context, username, email string) error
}

type registrar struct {
	repo   repository.UserRepository
	hasher auth.PasswordHasher
}

func NewRegistrar(repo repository.UserRepository, hasher auth.PasswordHasher) Registrar {
	return &registrar{repo: repo, hasher: hasher}
}

// Register persists a new user. When allowed is non-empty the requested role
// must be one of them.
func (r *registrar) Register(ctx context.Context, input dto.RegisterInput, allowed ...entity.Role) (*entity.User, error) {
	role, err := entity.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	if len(allowed) > 0 && !containsRole(allowed, role) {
		return nil, fmt.Errorf("cannot register an account with role %s: %w", role, apperror.ErrForbidden)
	}

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := r.EnsureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := r.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    normalizeOptional(input.FirstName),
		LastName:     normalizeOptional(input.LastName),
		CompanyName:  normalizeOptional(input.CompanyName),
		Address:      normalizeOptional(input.Address),
		PhoneNumber:  normalizeOptional(input.PhoneNumber),
	}

	if err := r.repo.Create(ctx, user); err != nil {
		// a concurrent registration may win the race past the pre-check
		if database.IsUniqueViolation(err) {
			return nil, r.duplicateCause(ctx, username, email)
		}
		return nil, err
	}

	return user, nil
}

// EnsureAvailable checks the username first, then the email.
func (r *registrar) EnsureAvailable(ctx context.Context, username, email string) error {
	if username != "" {
		taken, err := r.repo.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
	}

	if email != "" {
		inUse, err := r.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if inUse {
			return ErrEmailInUse
		}
	}

	return nil
}

func (r *registrar) duplicateCause(ctx context.Context, username, email string) error {
	if err := r.EnsureAvailable(ctx, username, email); err != nil {
		return err
	}
	return fmt.Errorf("account already exists: %w", apperror.ErrDuplicate)
}

func containsRole(roles []entity.Role, role entity.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	result := trimmed
	return &result
}
