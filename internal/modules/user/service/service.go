package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	search "anoa.com/jobapp/internal/modules/search/service"
	"anoa.com/jobapp/internal/modules/user/dto"
	"anoa.com/jobapp/internal/modules/user/repository"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/metrics"
	"gorm.io/gorm"
)

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *entity.User) (string, time.Time, error)
}

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Register(ctx context.Context, input dto.RegisterInput) (*dto.UserResponse, error)
}

type authService struct {
	repo      repository.UserRepository
	registrar Registrar
	hasher    auth.PasswordHasher
	tokens    TokenIssuer
	search    search.OfferSearchService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewAuthService(
	repo repository.UserRepository,
	registrar Registrar,
	hasher auth.PasswordHasher,
	tokens TokenIssuer,
	searchSvc search.OfferSearchService,
	m *metrics.Metrics,
	logger *slog.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		registrar: registrar,
		hasher:    hasher,
		tokens:    tokens,
		search:    searchSvc,
		metrics:   m,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordLogin("rejected")
			return nil, apperror.ErrAuthenticationFailed
		}
		return nil, err
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.recordLogin("rejected")
		return nil, apperror.ErrAuthenticationFailed
	}

	res, err := s.buildAuthResponse(user)
	if err != nil {
		return nil, err
	}

	s.recordLogin("accepted")
	s.logger.InfoContext(ctx, "user logged in", "username", user.Username, "role", user.Role)
	return res, nil
}

// Register is the public sign-up path. Administrator accounts can only be
// created from the admin console.
func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.UserResponse, error) {
	user, err := s.registrar.Register(ctx, input, entity.RoleCompany, entity.RoleStudent)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "username", user.Username, "role", user.Role)
	return dto.NewUserResponse(user), nil
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	var searchToken string
	if s.search != nil {
		st, err := s.search.GenerateSearchToken(auth.NewIdentity(user))
		if err != nil {
			s.logger.Warn("failed to generate search token", "username", user.Username, "role", user.Role, "error", err)
		} else {
			searchToken = st
		}
	}

	return &dto.AuthResponse{
		Token:       token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt.Unix(),
		User:        dto.NewUserResponse(user),
		SearchToken: searchToken,
	}, nil
}

func (s *authService) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(result).Inc()
	}
}
