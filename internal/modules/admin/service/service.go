package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	"anoa.com/jobapp/internal/modules/admin/dto"
	offerRepo "anoa.com/jobapp/internal/modules/offer/repository"
	search "anoa.com/jobapp/internal/modules/search/service"
	userDto "anoa.com/jobapp/internal/modules/user/dto"
	userRepo "anoa.com/jobapp/internal/modules/user/repository"
	userService "anoa.com/jobapp/internal/modules/user/service"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminService interface {
	CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.AdminUserResponse, error)
	GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateAdminUserInput) (*dto.AdminUserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type adminService struct {
	repo      userRepo.UserRepository
	offerRepo offerRepo.OfferRepository
	registrar userService.Registrar
	hasher    auth.PasswordHasher
	search    search.OfferSearchService
	logger    *slog.Logger
}

func NewAdminService(
	repo userRepo.UserRepository,
	offers offerRepo.OfferRepository,
	registrar userService.Registrar,
	hasher auth.PasswordHasher,
	searchSvc search.OfferSearchService,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		repo:      repo,
		offerRepo: offers,
		registrar: registrar,
		hasher:    hasher,
		search:    searchSvc,
		logger:    logger,
	}
}

// CreateUser may create accounts of any role, administrators included.
func (s *adminService) CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.AdminUserResponse, error) {
	user, err := s.registrar.Register(ctx, input.RegisterInput())
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created by admin", "user_id", user.ID, "role", user.Role)
	return userDto.NewUserResponse(user), nil
}

func (s *adminService) GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userDto.NewUserResponse(u))
	}
	return response, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateAdminUserInput) (*dto.AdminUserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != "" {
		role, err := entity.ParseRole(input.Role)
		if err != nil {
			return nil, err
		}
		if role != user.Role {
			return nil, fmt.Errorf("the role of an existing account cannot be changed: %w", apperror.ErrInvalidInput)
		}
	}

	username := strings.TrimSpace(input.Username)
	if username == user.Username {
		username = ""
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == user.Email {
		email = ""
	}
	if err := s.registrar.EnsureAvailable(ctx, username, email); err != nil {
		return nil, err
	}
	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}

	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	applyOptional(&user.FirstName, input.FirstName)
	applyOptional(&user.LastName, input.LastName)
	applyOptional(&user.CompanyName, input.CompanyName)
	applyOptional(&user.Address, input.Address)
	applyOptional(&user.PhoneNumber, input.PhoneNumber)

	if err := s.repo.Update(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("username or email already in use: %w", apperror.ErrDuplicate)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user updated by admin", "user_id", user.ID)
	return userDto.NewUserResponse(user), nil
}

// DeleteUser removes the account together with everything it owns: a
// company's offers and the applications to them, or a student's applications.
func (s *adminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	var offers []*entity.Offer
	if user.Role == entity.RoleCompany && s.search != nil {
		if offers, err = s.offerRepo.FindByCompanyID(ctx, user.ID); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	for _, offer := range offers {
		if err := s.search.DeleteOffer(offer.ID.String()); err != nil {
			s.logger.Warn("failed to remove offer from search index", "offer_id", offer.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "user deleted by admin", "user_id", user.ID, "role", user.Role)
	return nil
}

func (s *adminService) findUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// applyOptional overwrites dst when a value was sent. An empty string clears it.
func applyOptional(dst **string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		*dst = nil
		return
	}
	*dst = &trimmed
}
