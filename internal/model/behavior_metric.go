package model

import "time"

// BehaviorMetric 前端摄像头分析出的行为快照，原样入库，只追加不修改。
type BehaviorMetric struct {
	BaseModel
	InterviewID uint      `gorm:"index" json:"interviewId"`
	Timestamp   time.Time `json:"timestamp"`
	EyeContact  string    `gorm:"size:50" json:"eyeContact"`
	Posture     string    `gorm:"size:50" json:"posture"`
	Emotion     string    `gorm:"size:50" json:"emotion"`
}

func (BehaviorMetric) TableName() string {
	return "behavior_metrics"
}
