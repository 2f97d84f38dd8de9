package model

import "time"

// Document 用户上传的文件记录（目前仅简历）。
type Document struct {
	BaseModel
	UserID      uint      `gorm:"index" json:"userId"`
	InterviewID uint      `gorm:"index" json:"interviewId"`
	Type        string    `gorm:"size:20;default:'cv'" json:"type"`
	Filename    string    `gorm:"size:255" json:"filename"`
	StoredName  string    `gorm:"size:255" json:"storedName"` // 对象存储中的 key（uuid + 扩展名）
	UploadTime  time.Time `json:"uploadTime"`
}

func (Document) TableName() string {
	return "documents"
}
