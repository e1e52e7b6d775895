package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"anoa.com/jobapp/internal/entity"
	"anoa.com/jobapp/internal/modules/user/dto"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/ratelimiter"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCredentialService(repo *MockUserRepository, m *recordingMailer, limiter ratelimiter.Limiter) CredentialService {
	return NewCredentialService(repo, plainHasher{}, m, limiter, time.Minute, nil, discardLogger())
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Username: "ada", Email: "ada@example.com", PasswordHash: "hashed:old", Role: entity.RoleStudent}

	t.Run("stores a new hash and mails the temporary password once", func(t *testing.T) {
		repo := new(MockUserRepository)
		m := &recordingMailer{}
		var storedHash string
		repo.On("FindByEmail", ctx, "ada@example.com").Return(user, nil)
		repo.On("UpdatePassword", ctx, user.ID, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { storedHash = args.String(2) }).
			Return(nil)

		require.NoError(t, newCredentialService(repo, m, nil).ResetPassword(ctx, " Ada@Example.com "))

		require.Len(t, m.sent, 1)
		sent := m.sent[0]
		assert.Equal(t, "ada@example.com", sent.To)
		assert.Equal(t, "Password Reset", sent.Subject)
		require.True(t, strings.HasPrefix(sent.Body, "Your new temporary password is: "))

		temporary := strings.TrimPrefix(sent.Body, "Your new temporary password is: ")
		assert.Len(t, temporary, 16)
		assert.NotEqual(t, "hashed:old", storedHash)
		assert.True(t, plainHasher{}.Verify(temporary, storedHash))
	})

	t.Run("unknown email sends nothing", func(t *testing.T) {
		repo := new(MockUserRepository)
		m := &recordingMailer{}
		repo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

		err := newCredentialService(repo, m, nil).ResetPassword(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Empty(t, m.sent)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mail failure keeps the new hash and reports delivery failure", func(t *testing.T) {
		repo := new(MockUserRepository)
		m := &recordingMailer{err: errors.New("smtp down")}
		repo.On("FindByEmail", ctx, "ada@example.com").Return(user, nil)
		repo.On("UpdatePassword", ctx, user.ID, mock.Anything).Return(nil)

		err := newCredentialService(repo, m, nil).ResetPassword(ctx, "ada@example.com")
		assert.ErrorIs(t, err, apperror.ErrMailDelivery)
		repo.AssertCalled(t, "UpdatePassword", ctx, user.ID, mock.Anything)
	})

	t.Run("rate limited per email", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		repo := new(MockUserRepository)
		m := &recordingMailer{}
		repo.On("FindByEmail", ctx, "ada@example.com").Return(user, nil)
		repo.On("UpdatePassword", ctx, user.ID, mock.Anything).Return(nil)
		svc := newCredentialService(repo, m, ratelimiter.NewRedisLimiter(rdb))

		require.NoError(t, svc.ResetPassword(ctx, "ada@example.com"))
		err := svc.ResetPassword(ctx, "ada@example.com")
		assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
		assert.Len(t, m.sent, 1)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Username: "ada", PasswordHash: "hashed:old-password"}

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "ada").Return(user, nil)
		repo.On("UpdatePassword", ctx, user.ID, "hashed:new-password").Return(nil)

		err := newCredentialService(repo, &recordingMailer{}, nil).ChangePassword(ctx, dto.ChangePasswordInput{
			Username: "ada", OldPassword: "old-password", NewPassword: "new-password",
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("username is trimmed", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "ada").Return(user, nil)
		repo.On("UpdatePassword", ctx, user.ID, "hashed:new-password").Return(nil)

		err := newCredentialService(repo, &recordingMailer{}, nil).ChangePassword(ctx, dto.ChangePasswordInput{
			Username: "  ada", OldPassword: "old-password", NewPassword: "new-password",
		})
		require.NoError(t, err)
	})

	t.Run("wrong old password", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "ada").Return(user, nil)

		err := newCredentialService(repo, &recordingMailer{}, nil).ChangePassword(ctx, dto.ChangePasswordInput{
			Username: "ada", OldPassword: "guess", NewPassword: "new-password",
		})
		assert.ErrorIs(t, err, apperror.ErrInvalidCredential)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lifts the reset lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		locked := &entity.User{ID: uuid.New(), Username: "ada", Email: "ada@example.com", PasswordHash: "hashed:old-password"}
		repo := new(MockUserRepository)
		repo.On("FindByEmail", ctx, "ada@example.com").Return(locked, nil)
		repo.On("FindByUsername", ctx, "ada").Return(locked, nil)
		repo.On("UpdatePassword", ctx, locked.ID, mock.Anything).Return(nil)
		svc := newCredentialService(repo, &recordingMailer{}, ratelimiter.NewRedisLimiter(rdb))

		require.NoError(t, svc.ResetPassword(ctx, "ada@example.com"))
		require.NoError(t, svc.ChangePassword(ctx, dto.ChangePasswordInput{
			Username: "ada", OldPassword: "old-password", NewPassword: "new-password",
		}))
		assert.NoError(t, svc.ResetPassword(ctx, "ada@example.com"))
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

		err := newCredentialService(repo, &recordingMailer{}, nil).ChangePassword(ctx, dto.ChangePasswordInput{
			Username: "ghost", OldPassword: "x", NewPassword: "new-password",
		})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestGenerateTemporaryPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p, err := generateTemporaryPassword()
		require.NoError(t, err)
		assert.Len(t, p, 16)
		assert.False(t, seen[p])
		seen[p] = true
	}
}
