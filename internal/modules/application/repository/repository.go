package repository

import (
	"context"
	"fmt"

	"anoa.com/jobapp/internal/entity"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AfterInsertFunc runs inside the submission transaction once the row is
// written. Returning an error rolls the insert back.
type AfterInsertFunc func(ctx context.Context) error

type ApplicationRepository interface {
	ExistsByStudentAndOffer(ctx context.Context, studentID, offerID uuid.UUID) (bool, error)
	Submit(ctx context.Context, application *entity.Application, afterInsert AfterInsertFunc) error
	FindByStudentID(ctx context.Context, studentID uuid.UUID) ([]*entity.Application, error)
	OfferIDsByStudent(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) ExistsByStudentAndOffer(ctx context.Context, studentID, offerID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Where("student_id = ? AND offer_id = ?", studentID, offerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *applicationRepository) Submit(ctx context.Context, application *entity.Application, afterInsert AfterInsertFunc) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(application).Error; err != nil {
			return err
		}
		if afterInsert != nil {
			return afterInsert(ctx)
		}
		return nil
	})

	if database.IsUniqueViolation(err) {
		return fmt.Errorf("application already recorded: %w", apperror.ErrDuplicateApplication)
	}
	return err
}

func (r *applicationRepository) FindByStudentID(ctx context.Context, studentID uuid.UUID) ([]*entity.Application, error) {
	var applications []*entity.Application
	if err := r.db.WithContext(ctx).
		Preload("Offer").
		Preload("Offer.Company").
		Where("student_id = ?", studentID).
		Order("applied_at DESC").
		Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

func (r *applicationRepository) OfferIDsByStudent(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Where("student_id = ?", studentID).
		Pluck("offer_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
