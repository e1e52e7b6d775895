package service

import (
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const (
	offersIndex       = "offers"
	signingKeyName    = "TenantTokenSigner"
	searchTokenTTL    = 24 * time.Hour
	signingKeyListMax = 20
)

type OfferSearchService interface {
	IndexOffer(offer *entity.Offer) error
	DeleteOffer(id string) error
	GenerateSearchToken(identity *auth.Identity) (string, error)
}

type offerSearchService struct {
	client        meilisearch.ServiceManager
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
	logger        *slog.Logger
}

func NewOfferSearchService(client meilisearch.ServiceManager, logger *slog.Logger) OfferSearchService {
	s := &offerSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
	s.initIndex()
	s.initSigningKey()
	return s
}

func (s *offerSearchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{
		Limit: signingKeyListMax,
	})
	if err != nil {
		s.logger.Warn("failed to list meilisearch keys", "error", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == signingKeyName {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			s.logger.Info("found existing meilisearch signing key")
			return
		}
	}

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        signingKeyName,
		Actions:     []string{"search"},
		Indexes:     []string{offersIndex},
		ExpiresAt:   time.Now().AddDate(100, 0, 0),
	})
	if err != nil {
		s.logger.Warn("failed to create meilisearch signing key", "error", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	s.logger.Info("created meilisearch signing key")
}

func (s *offerSearchService) initIndex() {
	filterable := []any{"allowed_roles", "company_id"}
	if _, err := s.client.Index(offersIndex).UpdateFilterableAttributes(&filterable); err != nil {
		s.logger.Warn("failed to update offer filterable attributes", "error", err)
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(offersIndex).UpdateSortableAttributes(&sortable); err != nil {
		s.logger.Warn("failed to update offer sortable attributes", "error", err)
	}
}

type offerDoc struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	CompanyID    string   `json:"company_id"`
	CompanyName  string   `json:"company_name"`
	WebsiteURL   string   `json:"website_url,omitempty"`
	AllowedRoles []string `json:"allowed_roles"`
	CreatedAt    int64    `json:"created_at"`
}

func (s *offerSearchService) cleanContent(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</li>", " ")

	text := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

func (s *offerSearchService) IndexOffer(offer *entity.Offer) error {
	doc := offerDoc{
		ID:           offer.ID.String(),
		Title:        s.cleanContent(offer.Title),
		Description:  s.cleanContent(offer.Description),
		CompanyID:    offer.CompanyID.String(),
		CompanyName:  offer.Company.DisplayName(),
		AllowedRoles: []string{entity.RoleStudent.String()},
		CreatedAt:    offer.CreatedAt.Unix(),
	}
	if offer.WebsiteURL != nil {
		doc.WebsiteURL = *offer.WebsiteURL
	}

	task, err := s.client.Index(offersIndex).AddDocuments([]offerDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	s.logger.Debug("indexed offer", "offer_id", offer.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *offerSearchService) DeleteOffer(id string) error {
	_, err := s.client.Index(offersIndex).DeleteDocument(id)
	return err
}

// GenerateSearchToken scopes a tenant token to what the identity may list:
// students see every published offer, companies only their own, admins all.
func (s *offerSearchService) GenerateSearchToken(identity *auth.Identity) (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}
	if identity == nil {
		return "", fmt.Errorf("identity required")
	}

	var rules map[string]any
	switch identity.Role {
	case entity.RoleAdmin:
		rules = map[string]any{"filter": nil}
	case entity.RoleCompany:
		rules = map[string]any{"filter": fmt.Sprintf("company_id = '%s'", identity.UserID)}
	case entity.RoleStudent:
		rules = map[string]any{"filter": fmt.Sprintf("allowed_roles IN ['%s']", entity.RoleStudent)}
	default:
		return "", fmt.Errorf("no search access for role %q", identity.Role)
	}

	return s.client.GenerateTenantToken(s.signingKeyUID, map[string]any{offersIndex: rules}, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(searchTokenTTL),
	})
}

func strPtr(s string) *string {
	return &s
}
