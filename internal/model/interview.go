package model

import (
	"time"
)

type InterviewStatus string

const (
	InterviewOpen   InterviewStatus = "open"
	InterviewClosed InterviewStatus = "closed"
)

const (
	DifficultyMedium = "medium"

	DefaultPersonaGender      = "neutral"
	DefaultPersonaPersonality = "professional"
	DefaultPersonaTone        = "professional"
)

// Interview 一场面试会话。会话级可变上下文（知识库、岗位描述、
// 面试官人设、当前难度）全部挂在本行上，按会话隔离，不存在任何进程级共享状态。
type Interview struct {
	BaseModel
	UserID         uint            `gorm:"index" json:"userId"`
	Status         InterviewStatus `gorm:"type:enum('open','closed');default:'open';index" json:"status"`
	JobDescription string          `gorm:"type:text" json:"jobDescription"`
	KnowledgeBase  string          `gorm:"type:mediumtext" json:"-"` // 从简历中提取的全文，体积大，不下发

	PersonaGender      string `gorm:"size:20;default:'neutral'" json:"personaGender"`
	PersonaPersonality string `gorm:"size:50;default:'professional'" json:"personaPersonality"`
	PersonaTone        string `gorm:"size:50;default:'professional'" json:"personaTone"`
	Difficulty         string `gorm:"size:20;default:'medium'" json:"difficulty"`

	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`

	ScoreOverall    float64 `json:"scoreOverall"`
	EmotionalScore  float64 `json:"emotionalScore"`
	EyeContactScore float64 `json:"eyeContactScore"`
	PostureScore    float64 `json:"postureScore"`
	FeedbackText    string  `gorm:"type:text" json:"feedbackText"`
}

func (Interview) TableName() string {
	return "interviews"
}
