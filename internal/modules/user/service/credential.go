package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/modules/user/dto"
	"anoa.com/jobapp/internal/modules/user/repository"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/mailer"
	"anoa.com/jobapp/pkg/metrics"
	"anoa.com/jobapp/pkg/ratelimiter"
	"gorm.io/gorm"
)

const (
	temporaryPasswordBytes = 12
	passwordResetAction    = "password_reset"
	passwordResetSubject   = "Password Reset"
)

type CredentialService interface {
	ResetPassword(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, input dto.ChangePasswordInput) error
}

type credentialService struct {
	repo        repository.UserRepository
	hasher      auth.PasswordHasher
	mailer      mailer.Mailer
	limiter     ratelimiter.Limiter
	resetWindow time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewCredentialService(
	repo repository.UserRepository,
	hasher auth.PasswordHasher,
	mail mailer.Mailer,
	limiter ratelimiter.Limiter,
	resetWindow time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) CredentialService {
	return &credentialService{
		repo:        repo,
		hasher:      hasher,
		mailer:      mail,
		limiter:     limiter,
		resetWindow: resetWindow,
		metrics:     m,
		logger:      logger,
	}
}

// ResetPassword replaces the password of the account registered under email
// with a random temporary one and mails it to that address. The new hash is
// stored before the mail is sent; a delivery failure is reported but the
// reset is not undone.
func (s *credentialService) ResetPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, passwordResetAction, email, s.resetWindow); err != nil {
			s.recordReset("throttled")
			return err
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordReset("unknown_email")
			return fmt.Errorf("no user found with this email address: %w", apperror.ErrNotFound)
		}
		return err
	}

	temporary, err := generateTemporaryPassword()
	if err != nil {
		return fmt.Errorf("failed to generate temporary password: %w", err)
	}

	hash, err := s.hasher.Hash(temporary)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	err = s.mailer.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: passwordResetSubject,
		Body:    "Your new temporary password is: " + temporary,
	})
	s.recordMail(err)
	if err != nil {
		s.recordReset("undelivered")
		s.logger.ErrorContext(ctx, "password reset stored but mail not delivered", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: password reset for %s: %v", apperror.ErrMailDelivery, user.Email, err)
	}

	s.recordReset("sent")
	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

func (s *credentialService) ChangePassword(ctx context.Context, input dto.ChangePasswordInput) error {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	if !s.hasher.Verify(input.OldPassword, user.PasswordHash) {
		return fmt.Errorf("old password is incorrect: %w", apperror.ErrInvalidCredential)
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	// the user has a working password again, so a fresh reset may be requested
	if s.limiter != nil {
		if err := s.limiter.Clear(ctx, passwordResetAction, user.Email); err != nil {
			s.logger.Warn("failed to clear password reset lock", "user_id", user.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", user.ID)
	return nil
}

// generateTemporaryPassword returns 96 bits from the system CSPRNG, URL-safe encoded.
func generateTemporaryPassword() (string, error) {
	buf := make([]byte, temporaryPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *credentialService) recordReset(result string) {
	if s.metrics != nil {
		s.metrics.PasswordResets.WithLabelValues(result).Inc()
	}
}

func (s *credentialService) recordMail(err error) {
	if s.metrics != nil {
		s.metrics.MailDeliveries.WithLabelValues(passwordResetAction, metrics.Result(err)).Inc()
	}
}
