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
	"anoa.com/jobapp/internal/modules/application/dto"
	"anoa.com/jobapp/internal/modules/application/repository"
	offerRepo "anoa.com/jobapp/internal/modules/offer/repository"
	userRepo "anoa.com/jobapp/internal/modules/user/repository"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/mailer"
	"anoa.com/jobapp/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	applicationMailKind      = "application"
	defaultAttachmentName    = "attachment"
	applicationSubjectPrefix = "New Job Application for: "
)

type ApplicationService interface {
	Apply(ctx context.Context, actor *auth.Identity, offerID uuid.UUID, input dto.ApplyInput) (*dto.ApplicationResponse, error)
	GetMyApplications(ctx context.Context, actor *auth.Identity) ([]dto.ApplicationResponse, error)
}

type applicationService struct {
	repo      repository.ApplicationRepository
	offerRepo offerRepo.OfferRepository
	userRepo  userRepo.UserRepository
	mailer    mailer.Mailer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewApplicationService(
	repo repository.ApplicationRepository,
	offers offerRepo.OfferRepository,
	users userRepo.UserRepository,
	mail mailer.Mailer,
	m *metrics.Metrics,
	logger *slog.Logger,
) ApplicationService {
	return &applicationService{
		repo:      repo,
		offerRepo: offers,
		userRepo:  users,
		mailer:    mail,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Apply records the student's application and mails both documents to the
// company that owns the offer. The row and the mail succeed or fail together.
func (s *applicationService) Apply(ctx context.Context, actor *auth.Identity, offerID uuid.UUID, input dto.ApplyInput) (*dto.ApplicationResponse, error) {
	if !actor.HasRole(entity.RoleStudent) {
		return nil, fmt.Errorf("only students can apply to offers: %w", apperror.ErrForbidden)
	}
	if len(input.CV.Content) == 0 || len(input.Motivation.Content) == 0 {
		return nil, fmt.Errorf("cv and motivation letter are required: %w", apperror.ErrInvalidInput)
	}

	offer, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	student, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("student not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	exists, err := s.repo.ExistsByStudentAndOffer(ctx, student.ID, offer.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.record("duplicate")
		return nil, apperror.ErrDuplicateApplication
	}

	if strings.TrimSpace(offer.Company.Email) == "" {
		return nil, fmt.Errorf("company for offer %s has no email address", offer.ID)
	}

	application := &entity.Application{
		StudentID: student.ID,
		OfferID:   offer.ID,
		AppliedAt: s.now(),
	}

	notify := func(ctx context.Context) error {
		err := s.mailer.Send(ctx, applicationMessage(offer, student, input))
		s.recordMail(err)
		if err != nil {
			return fmt.Errorf("%w: application for offer %s: %v", apperror.ErrMailDelivery, offer.ID, err)
		}
		return nil
	}

	if err := s.repo.Submit(ctx, application, notify); err != nil {
		switch {
		case errors.Is(err, apperror.ErrDuplicateApplication):
			s.record("duplicate")
		case errors.Is(err, apperror.ErrMailDelivery):
			s.record("undelivered")
			s.logger.ErrorContext(ctx, "application rolled back, mail not delivered", "offer_id", offer.ID, "student_id", student.ID, "error", err)
		}
		return nil, err
	}

	application.Offer = *offer
	s.record("submitted")
	s.logger.InfoContext(ctx, "application submitted", "offer_id", offer.ID, "student_id", student.ID)

	res := dto.NewApplicationResponse(application)
	return &res, nil
}

func (s *applicationService) GetMyApplications(ctx context.Context, actor *auth.Identity) ([]dto.ApplicationResponse, error) {
	if !actor.HasRole(entity.RoleStudent) {
		return nil, fmt.Errorf("only students have applications: %w", apperror.ErrForbidden)
	}

	applications, err := s.repo.FindByStudentID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ApplicationResponse, 0, len(applications))
	for _, a := range applications {
		responses = append(responses, dto.NewApplicationResponse(a))
	}
	return responses, nil
}

func applicationMessage(offer *entity.Offer, student *entity.User, input dto.ApplyInput) mailer.Message {
	body := fmt.Sprintf(
		"Hello %s,\n\nA new application has been submitted for your offer \"%s\".\n\nApplicant: %s\nEmail: %s\n\nThe CV and motivation letter are attached.",
		offer.Company.DisplayName(), offer.Title, student.DisplayName(), student.Email,
	)

	return mailer.Message{
		To:          offer.Company.Email,
		Subject:     applicationSubjectPrefix + offer.Title,
		Body:        body,
		Attachments: []mailer.Attachment{named(input.CV), named(input.Motivation)},
	}
}

func named(a mailer.Attachment) mailer.Attachment {
	if strings.TrimSpace(a.FileName) == "" {
		a.FileName = defaultAttachmentName
	}
	return a
}

func (s *applicationService) record(result string) {
	if s.metrics != nil {
		s.metrics.Applications.WithLabelValues(result).Inc()
	}
}

func (s *applicationService) recordMail(err error) {
	if s.metrics != nil {
		s.metrics.MailDeliveries.WithLabelValues(applicationMailKind, metrics.Result(err)).Inc()
	}
}
