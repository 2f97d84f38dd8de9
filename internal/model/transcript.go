package model

// TranscriptEntry 面试逐字稿的一条发言，按 ID 排序即为时间顺序。
type TranscriptEntry struct {
	BaseModel
	InterviewID uint   `gorm:"index" json:"interviewId"`
	Role        string `gorm:"size:20" json:"role"`
	Content     string `gorm:"type:text" json:"content"`
}

func (TranscriptEntry) TableName() string {
	return "transcript_entries"
}

const TranscriptRoleUser = "user"
