package repository

import (
	"interview_trainer_backend/internal/model"

	"gorm.io/gorm"
)

type TranscriptRepository struct {
	DB *gorm.DB
}

func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{DB: db}
}

func (r *TranscriptRepository) Append(e *model.TranscriptEntry) error {
	return r.DB.Create(e).Error
}

func (r *TranscriptRepository) ByInterview(interviewID uint) ([]model.TranscriptEntry, error) {
	var entries []model.TranscriptEntry
	err := r.DB.Where("interview_id = ?", interviewID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
