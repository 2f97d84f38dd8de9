package repository

import (
	"interview_trainer_backend/internal/model"

	"gorm.io/gorm"
)

type DocumentRepository struct {
	DB *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Create(d *model.Document) error {
	return r.DB.Create(d).Error
}

func (r *DocumentRepository) ByInterview(interviewID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.DB.Where("interview_id = ?", interviewID).
		Order("id ASC").
		Find(&docs).Error
	return docs, err
}
