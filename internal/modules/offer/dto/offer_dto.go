package dto

import (
	"time"

	"anoa.com/jobapp/internal/entity"
	"github.com/google/uuid"
)

type OfferRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description string  `json:"description" binding:"required"`
	LogoURL     *string `json:"logo_url" binding:"omitempty,url"`
	WebsiteURL  *string `json:"website_url" binding:"omitempty,url"`
}

type OfferResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	WebsiteURL  *string   `json:"website_url,omitempty"`
	CompanyID   uuid.UUID `json:"company_id"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Applied     *bool     `json:"applied,omitempty"`
}

func NewOfferResponse(o *entity.Offer) OfferResponse {
	return OfferResponse{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		LogoURL:     o.LogoURL,
		WebsiteURL:  o.WebsiteURL,
		CompanyID:   o.CompanyID,
		CompanyName: o.Company.DisplayName(),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
