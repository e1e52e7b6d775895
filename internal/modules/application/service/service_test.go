package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	"anoa.com/jobapp/internal/modules/application/dto"
	"anoa.com/jobapp/internal/modules/application/repository"
	"anoa.com/jobapp/internal/modules/application/service"
	offerRepo "anoa.com/jobapp/internal/modules/offer/repository"
	userRepo "anoa.com/jobapp/internal/modules/user/repository"
	"anoa.com/jobapp/internal/testutil"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/mailer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	db      *gorm.DB
	mail    *recordingMailer
	svc     service.ApplicationService
	company *entity.User
	student *entity.User
	offer   *entity.Offer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	companyName := "Acme"
	first, last := "Ada", "Lovelace"

	f := &fixture{
		db:      db,
		mail:    &recordingMailer{},
		company: &entity.User{Username: "acme", Email: "jobs@acme.test", PasswordHash: "x", Role: entity.RoleCompany, CompanyName: &companyName},
		student: &entity.User{Username: "ada", Email: "ada@uni.test", PasswordHash: "x", Role: entity.RoleStudent, FirstName: &first, LastName: &last},
	}
	require.NoError(t, db.Create(f.company).Error)
	require.NoError(t, db.Create(f.student).Error)

	f.offer = &entity.Offer{Title: "Backend Engineer", Description: "Go", CompanyID: f.company.ID}
	require.NoError(t, db.Omit("Company").Create(f.offer).Error)

	f.svc = service.NewApplicationService(
		repository.NewApplicationRepository(db),
		offerRepo.NewOfferRepository(db),
		userRepo.NewUserRepository(db),
		f.mail,
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func (f *fixture) actor() *auth.Identity {
	return auth.NewIdentity(f.student)
}

func (f *fixture) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&entity.Application{}).Count(&n).Error)
	return n
}

func documents() dto.ApplyInput {
	return dto.ApplyInput{
		CV:         mailer.Attachment{FileName: "cv.pdf", ContentType: "application/pdf", Content: []byte("%PDF cv")},
		Motivation: mailer.Attachment{ContentType: "application/pdf", Content: []byte("%PDF letter")},
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the application and mails the company", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.svc.Apply(ctx, f.actor(), f.offer.ID, documents())
		require.NoError(t, err)
		assert.Equal(t, f.offer.ID, res.OfferID)
		assert.Equal(t, "Acme", res.CompanyName)
		assert.False(t, res.AppliedAt.IsZero())
		assert.EqualValues(t, 1, f.count(t))

		require.Len(t, f.mail.sent, 1)
		msg := f.mail.sent[0]
		assert.Equal(t, "jobs@acme.test", msg.To)
		assert.Equal(t, "New Job Application for: Backend Engineer", msg.Subject)
		assert.Contains(t, msg.Body, "ada@uni.test")
		require.Len(t, msg.Attachments, 2)
		assert.Equal(t, "cv.pdf", msg.Attachments[0].FileName)
		assert.Equal(t, "attachment", msg.Attachments[1].FileName)
	})

	t.Run("second application is a duplicate", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Apply(ctx, f.actor(), f.offer.ID, documents())
		require.NoError(t, err)

		_, err = f.svc.Apply(ctx, f.actor(), f.offer.ID, documents())
		assert.ErrorIs(t, err, apperror.ErrDuplicateApplication)
		assert.ErrorIs(t, err, apperror.ErrDuplicate)
		assert.EqualValues(t, 1, f.count(t))
		assert.Len(t, f.mail.sent, 1)
	})

	t.Run("mail failure leaves no application behind", func(t *testing.T) {
		f := newFixture(t)
		f.mail.err = errors.New("smtp down")

		_, err := f.svc.Apply(ctx, f.actor(), f.offer.ID, documents())
		assert.ErrorIs(t, err, apperror.ErrMailDelivery)
		assert.EqualValues(t, 0, f.count(t))

		f.mail.err = nil
		_, err = f.svc.Apply(ctx, f.actor(), f.offer.ID, documents())
		assert.NoError(t, err)
	})

	t.Run("documents are required", func(t *testing.T) {
		f := newFixture(t)
		input := documents()
		input.Motivation.Content = nil

		_, err := f.svc.Apply(ctx, f.actor(), f.offer.ID, input)
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		assert.Empty(t, f.mail.sent)
	})

	t.Run("unknown offer", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Apply(ctx, f.actor(), uuid.New(), documents())
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("companies cannot apply", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Apply(ctx, auth.NewIdentity(f.company), f.offer.ID, documents())
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		assert.EqualValues(t, 0, f.count(t))
	})
}

func TestGetMyApplications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Apply(ctx, f.actor(), f.offer.ID, documents())
	require.NoError(t, err)

	res, err := f.svc.GetMyApplications(ctx, f.actor())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Backend Engineer", res[0].OfferTitle)
	assert.Equal(t, "Acme", res[0].CompanyName)

	_, err = f.svc.GetMyApplications(ctx, auth.NewIdentity(f.company))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
