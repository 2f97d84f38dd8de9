package model

// Question 一轮面试提出的问题。Score 在下一条用户消息到达后才回填
// （提问时为 0，始终滞后一轮）。
type Question struct {
	BaseModel
	InterviewID  uint    `gorm:"index" json:"interviewId"`
	QuestionText string  `gorm:"type:text" json:"questionText"`
	Difficulty   string  `gorm:"size:20" json:"difficulty"`
	Score        float64 `gorm:"default:0" json:"score"`
}

func (Question) TableName() string {
	return "questions"
}
