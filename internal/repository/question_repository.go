package repository

import (
	"interview_trainer_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// LatestUnscored 取该会话最近一条尚未回填评分的问题。
// 首轮对话没有待评分问题，返回 gorm.ErrRecordNotFound。
func (r *QuestionRepository) LatestUnscored(interviewID uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Where("interview_id = ? AND score = 0", interviewID).
		Order("id DESC").
		First(&q).Error
	return &q, err
}

// CompleteTurn 单个事务内完成一轮写入：回填上一问的评分并插入新问题。
// 任一写入失败则整体回滚，避免评分与问题串位。
func (r *QuestionRepository) CompleteTurn(prevQuestionID uint, score float64, next *model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if prevQuestionID > 0 {
			if err := tx.Model(&model.Question{}).
				Where("id = ?", prevQuestionID).
				Update("score", score).Error; err != nil {
				return err
			}
		}
		return tx.Create(next).Error
	})
}

// AverageScore 会话内已评分（score > 0）问题的平均分，没有已评分问题时为 0
func (r *QuestionRepository) AverageScore(interviewID uint) (float64, error) {
	var result struct {
		Avg float64
	}
	err := r.DB.Model(&model.Question{}).
		Select("COALESCE(AVG(score), 0) AS avg").
		Where("interview_id = ? AND score > 0", interviewID).
		Scan(&result).Error
	return result.Avg, err
}
