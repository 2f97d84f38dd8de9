package repository

import (
	"interview_trainer_backend/internal/model"

	"gorm.io/gorm"
)

type DatasetRepository struct {
	DB *gorm.DB
}

func NewDatasetRepository(db *gorm.DB) *DatasetRepository {
	return &DatasetRepository{DB: db}
}

func (r *DatasetRepository) Append(row *model.InterviewDataset) error {
	return r.DB.Create(row).Error
}

func (r *DatasetRepository) ByUser(userID uint) ([]model.InterviewDataset, error) {
	var rows []model.InterviewDataset
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
