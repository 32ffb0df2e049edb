package repository

import (
	"context"
	"learnboard_backend/internal/model"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]model.Certificate, error) {
	var rows []model.Certificate
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_date").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("list certificates", err)
	}
	return DecodeCertificateRows(rows), nil
}

func (r *CertificateRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&cert).Error
	if err != nil {
		return nil, storeError("find certificate", err)
	}
	return &cert, nil
}

func (r *CertificateRepository) Create(ctx context.Context, cert *model.Certificate) error {
	return storeError("create certificate", r.DB.WithContext(ctx).Create(cert).Error)
}
