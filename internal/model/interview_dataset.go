package model

import "time"

// InterviewDataset 面试结束时落库的反规范化快照，供深度分析服务的
// 训练任务消费。JSON 字段名保持与历史前端一致（snake_case）。
type InterviewDataset struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	InterviewID     uint       `gorm:"index" json:"interview_id"`
	UserID          uint       `gorm:"index" json:"user_id"`
	JobDescription  string     `gorm:"type:text" json:"job_description"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	ScoreOverall    float64    `json:"score_overall"`
	EmotionalScore  float64    `json:"emotional_score"`
	EyeContactScore float64    `json:"eye_contact_score"`
	PostureScore    float64    `json:"posture_score"`
	FeedbackText    string     `gorm:"type:text" json:"feedback_text"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (InterviewDataset) TableName() string {
	return "interview_dataset"
}
