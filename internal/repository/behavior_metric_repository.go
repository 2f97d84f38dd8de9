package repository

import (
	"interview_trainer_backend/internal/model"

	"gorm.io/gorm"
)

type BehaviorMetricRepository struct {
	DB *gorm.DB
}

func NewBehaviorMetricRepository(db *gorm.DB) *BehaviorMetricRepository {
	return &BehaviorMetricRepository{DB: db}
}

func (r *BehaviorMetricRepository) Append(m *model.BehaviorMetric) error {
	return r.DB.Create(m).Error
}

func (r *BehaviorMetricRepository) Latest(interviewID uint) (*model.BehaviorMetric, error) {
	var m model.BehaviorMetric
	err := r.DB.Where("interview_id = ?", interviewID).
		Order("id DESC").
		First(&m).Error
	return &m, err
}

func (r *BehaviorMetricRepository) AllByInterview(interviewID uint) ([]model.BehaviorMetric, error) {
	var metrics []model.BehaviorMetric
	err := r.DB.Where("interview_id = ?", interviewID).
		Order("id ASC").
		Find(&metrics).Error
	return metrics, err
}
