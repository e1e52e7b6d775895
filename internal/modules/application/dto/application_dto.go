package dto

import (
	"time"

	"anoa.com/jobapp/internal/entity"
	"anoa.com/jobapp/pkg/mailer"
	"github.com/google/uuid"
)

// ApplyInput carries the two documents a student submits with an application.
type ApplyInput struct {
	CV         mailer.Attachment
	Motivation mailer.Attachment
}

type ApplicationResponse struct {
	ID          uuid.UUID `json:"id"`
	OfferID     uuid.UUID `json:"offer_id"`
	OfferTitle  string    `json:"offer_title"`
	CompanyName string    `json:"company_name"`
	StudentID   uuid.UUID `json:"student_id"`
	AppliedAt   time.Time `json:"applied_at"`
}

func NewApplicationResponse(a *entity.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          a.ID,
		OfferID:     a.OfferID,
		OfferTitle:  a.Offer.Title,
		CompanyName: a.Offer.Company.DisplayName(),
		StudentID:   a.StudentID,
		AppliedAt:   a.AppliedAt,
	}
}
