package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	applicationRepo "anoa.com/jobapp/internal/modules/application/repository"
	"anoa.com/jobapp/internal/modules/offer/dto"
	offerRepo "anoa.com/jobapp/internal/modules/offer/repository"
	search "anoa.com/jobapp/internal/modules/search/service"
	userRepo "anoa.com/jobapp/internal/modules/user/repository"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/metrics"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

type OfferService interface {
	CreateOffer(ctx context.Context, actor *auth.Identity, req dto.OfferRequest) (*dto.OfferResponse, error)
	GetCompanyOffers(ctx context.Context, actor *auth.Identity) ([]dto.OfferResponse, error)
	UpdateOffer(ctx context.Context, actor *auth.Identity, id uuid.UUID, req dto.OfferRequest) (*dto.OfferResponse, error)
	DeleteOffer(ctx context.Context, actor *auth.Identity, id uuid.UUID) error
	GetAllOffers(ctx context.Context, actor *auth.Identity) ([]dto.OfferResponse, error)
	GetOfferByID(ctx context.Context, actor *auth.Identity, id uuid.UUID) (*dto.OfferResponse, error)
}

type offerService struct {
	offerRepo       offerRepo.OfferRepository
	userRepo        userRepo.UserRepository
	applicationRepo applicationRepo.ApplicationRepository
	search          search.OfferSearchService
	metrics         *metrics.Metrics
	logger          *slog.Logger
	titlePolicy     *bluemonday.Policy
	bodyPolicy      *bluemonday.Policy
}

func NewOfferService(
	offers offerRepo.OfferRepository,
	users userRepo.UserRepository,
	applications applicationRepo.ApplicationRepository,
	searchSvc search.OfferSearchService,
	m *metrics.Metrics,
	logger *slog.Logger,
) OfferService {
	return &offerService{
		offerRepo:       offers,
		userRepo:        users,
		applicationRepo: applications,
		search:          searchSvc,
		metrics:         m,
		logger:          logger,
		titlePolicy:     bluemonday.StrictPolicy(),
		bodyPolicy:      bluemonday.UGCPolicy(),
	}
}

func (s *offerService) CreateOffer(ctx context.Context, actor *auth.Identity, req dto.OfferRequest) (*dto.OfferResponse, error) {
	if !actor.HasRole(entity.RoleCompany) {
		return nil, fmt.Errorf("only companies can publish offers: %w", apperror.ErrForbidden)
	}

	company, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("company not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	offer := &entity.Offer{CompanyID: company.ID}
	if err := s.apply(offer, req); err != nil {
		return nil, err
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}
	offer.Company = *company

	s.index(offer)
	s.logger.InfoContext(ctx, "offer created", "offer_id", offer.ID, "company", company.Username)

	res := dto.NewOfferResponse(offer)
	return &res, nil
}

func (s *offerService) GetCompanyOffers(ctx context.Context, actor *auth.Identity) ([]dto.OfferResponse, error) {
	if !actor.HasRole(entity.RoleCompany) {
		return nil, fmt.Errorf("only companies have published offers: %w", apperror.ErrForbidden)
	}

	offers, err := s.offerRepo.FindByCompanyID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.OfferResponse, 0, len(offers))
	for _, offer := range offers {
		responses = append(responses, dto.NewOfferResponse(offer))
	}
	return responses, nil
}

func (s *offerService) UpdateOffer(ctx context.Context, actor *auth.Identity, id uuid.UUID, req dto.OfferRequest) (*dto.OfferResponse, error) {
	offer, err := s.ownedOffer(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}

	if err := s.apply(offer, req); err != nil {
		return nil, err
	}

	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, err
	}

	s.index(offer)
	s.logger.InfoContext(ctx, "offer updated", "offer_id", offer.ID)

	res := dto.NewOfferResponse(offer)
	return &res, nil
}

func (s *offerService) DeleteOffer(ctx context.Context, actor *auth.Identity, id uuid.UUID) error {
	offer, err := s.ownedOffer(ctx, actor, id, "delete")
	if err != nil {
		return err
	}

	if err := s.offerRepo.Delete(ctx, offer.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("offer not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	if s.search != nil {
		err := s.search.DeleteOffer(offer.ID.String())
		s.recordIndex("delete", err)
		if err != nil {
			s.logger.Warn("failed to remove offer from search index", "offer_id", offer.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "offer deleted", "offer_id", offer.ID)
	return nil
}

// GetAllOffers lists every offer, flagging the ones the student already applied to.
func (s *offerService) GetAllOffers(ctx context.Context, actor *auth.Identity) ([]dto.OfferResponse, error) {
	offers, err := s.offerRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	applied, err := s.appliedOffers(ctx, actor)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.OfferResponse, 0, len(offers))
	for _, offer := range offers {
		res := dto.NewOfferResponse(offer)
		if applied != nil {
			flag := applied[offer.ID]
			res.Applied = &flag
		}
		responses = append(responses, res)
	}
	return responses, nil
}

func (s *offerService) GetOfferByID(ctx context.Context, actor *auth.Identity, id uuid.UUID) (*dto.OfferResponse, error) {
	offer, err := s.findOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	res := dto.NewOfferResponse(offer)
	if actor.HasRole(entity.RoleStudent) {
		exists, err := s.applicationRepo.ExistsByStudentAndOffer(ctx, actor.UserID, offer.ID)
		if err != nil {
			return nil, err
		}
		res.Applied = &exists
	}
	return &res, nil
}

func (s *offerService) ownedOffer(ctx context.Context, actor *auth.Identity, id uuid.UUID, action string) (*entity.Offer, error) {
	offer, err := s.findOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor == nil || !offer.OwnedBy(actor.UserID) {
		return nil, fmt.Errorf("you are not authorized to %s this offer: %w", action, apperror.ErrForbidden)
	}
	return offer, nil
}

func (s *offerService) findOffer(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	offer, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return offer, nil
}

func (s *offerService) appliedOffers(ctx context.Context, actor *auth.Identity) (map[uuid.UUID]bool, error) {
	if !actor.HasRole(entity.RoleStudent) {
		return nil, nil
	}

	ids, err := s.applicationRepo.OfferIDsByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	applied := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		applied[id] = true
	}
	return applied, nil
}

// apply copies the request onto the offer. Markup is stripped from the
// title and limited to safe formatting in the description.
func (s *offerService) apply(offer *entity.Offer, req dto.OfferRequest) error {
	title := strings.TrimSpace(html.UnescapeString(s.titlePolicy.Sanitize(req.Title)))
	description := strings.TrimSpace(s.bodyPolicy.Sanitize(req.Description))
	if title == "" || description == "" {
		return fmt.Errorf("title and description are required: %w", apperror.ErrInvalidInput)
	}

	offer.Title = title
	offer.Description = description
	offer.LogoURL = normalizeOptional(req.LogoURL)
	offer.WebsiteURL = normalizeOptional(req.WebsiteURL)
	return nil
}

func (s *offerService) index(offer *entity.Offer) {
	if s.search == nil {
		return
	}
	err := s.search.IndexOffer(offer)
	s.recordIndex("index", err)
	if err != nil {
		s.logger.Warn("failed to index offer", "offer_id", offer.ID, "error", err)
	}
}

func (s *offerService) recordIndex(op string, err error) {
	if s.metrics != nil {
		s.metrics.SearchIndexOps.WithLabelValues(op, metrics.Result(err)).Inc()
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
