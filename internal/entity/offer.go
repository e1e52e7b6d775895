package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Offer struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	LogoURL     *string   `gorm:"type:text" json:"logo_url,omitempty"`
	WebsiteURL  *string   `gorm:"type:text" json:"website_url,omitempty"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Company     User      `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Offer) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID, err = uuid.NewV7()
	}
	return
}

// OwnedBy reports whether the offer was created by the given company account.
func (o *Offer) OwnedBy(userID uuid.UUID) bool {
	return o.CompanyID != uuid.Nil && o.CompanyID == userID
}

type Application struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_student_offer,priority:1" json:"student_id"`
	Student   User      `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	OfferID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_applications_student_offer,priority:2" json:"offer_id"`
	Offer     Offer     `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE" json:"-"`
	AppliedAt time.Time `gorm:"not null" json:"applied_at"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now()
	}
	return
}
