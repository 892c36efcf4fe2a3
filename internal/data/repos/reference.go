package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/kitaplan/kitaplan-backend/internal/domain"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

// The pipeline consumes reference data read-only; writes happen in the
// lesson-planning frontend.

type CurriculumReferenceRepo interface {
	ListAll(ctx context.Context) ([]*domain.CurriculumReference, error)
}

type EducationalModuleRepo interface {
	ListAll(ctx context.Context) ([]*domain.EducationalModule, error)
}

type curriculumReferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumReferenceRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumReferenceRepo {
	return &curriculumReferenceRepo{db: db, log: baseLog.With("repo", "CurriculumReferenceRepo")}
}

func (r *curriculumReferenceRepo) ListAll(ctx context.Context) ([]*domain.CurriculumReference, error) {
	var out []*domain.CurriculumReference
	if err := r.db.WithContext(ctx).
		Order("code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type educationalModuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEducationalModuleRepo(db *gorm.DB, baseLog *logger.Logger) EducationalModuleRepo {
	return &educationalModuleRepo{db: db, log: baseLog.With("repo", "EducationalModuleRepo")}
}

func (r *educationalModuleRepo) ListAll(ctx context.Context) ([]*domain.EducationalModule, error) {
	var out []*domain.EducationalModule
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
