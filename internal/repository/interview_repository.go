package repository

import (
	"context"
	"fmt"
	"interview_trainer_backend/internal/model"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const activeInterviewTTL = time.Hour

type InterviewRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewInterviewRepository(db *gorm.DB, rdb *redis.Client) *InterviewRepository {
	return &InterviewRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

func (r *InterviewRepository) Create(iv *model.Interview) error {
	err := r.DB.Create(iv).Error
	if err == nil {
		// 新会话即为该用户的活跃会话
		r.cacheActiveID(iv.UserID, iv.ID)
	}
	return err
}

func (r *InterviewRepository) FindByID(id uint) (*model.Interview, error) {
	var iv model.Interview
	err := r.DB.First(&iv, "id = ?", id).Error
	return &iv, err
}

// ActiveByUser 查找用户当前的活跃会话：最近一条 status=open 的面试。
// 命中 Redis 缓存时跳过倒序扫描；缓存中的会话已被关闭则回源并清缓存。
func (r *InterviewRepository) ActiveByUser(userID uint) (*model.Interview, error) {
	if r.Redis != nil {
		key := activeInterviewKey(userID)
		if cached, err := r.Redis.Get(r.ctx, key).Result(); err == nil {
			if id, convErr := strconv.ParseUint(cached, 10, 32); convErr == nil {
				var iv model.Interview
				err := r.DB.First(&iv, "id = ? AND status = ?", uint(id), model.InterviewOpen).Error
				if err == nil {
					return &iv, nil
				}
			}
			r.Redis.Del(r.ctx, key)
		}
	}

	var iv model.Interview
	err := r.DB.Where("user_id = ? AND status = ?", userID, model.InterviewOpen).
		Order("id DESC").
		First(&iv).Error
	if err != nil {
		return nil, err
	}

	r.cacheActiveID(userID, iv.ID)
	return &iv, nil
}

// UpdateContext 更新会话级上下文字段（岗位描述、难度、人设、知识库）
func (r *InterviewRepository) UpdateContext(interviewID uint, fields map[string]interface{}) error {
	return r.DB.Model(&model.Interview{}).
		Where("id = ?", interviewID).
		Updates(fields).Error
}

// Close 落盘最终成绩并关闭会话，随后失效活跃缓存
func (r *InterviewRepository) Close(iv *model.Interview) error {
	now := time.Now()
	iv.EndTime = &now
	iv.Status = model.InterviewClosed

	err := r.DB.Model(&model.Interview{}).
		Where("id = ?", iv.ID).
		Updates(map[string]interface{}{
			"status":            model.InterviewClosed,
			"end_time":          iv.EndTime,
			"feedback_text":     iv.FeedbackText,
			"score_overall":     iv.ScoreOverall,
			"emotional_score":   iv.EmotionalScore,
			"eye_contact_score": iv.EyeContactScore,
			"posture_score":     iv.PostureScore,
		}).Error

	if err == nil && r.Redis != nil {
		r.Redis.Del(r.ctx, activeInterviewKey(iv.UserID))
	}
	return err
}

func (r *InterviewRepository) cacheActiveID(userID, interviewID uint) {
	if r.Redis == nil {
		return
	}
	r.Redis.Set(r.ctx, activeInterviewKey(userID), interviewID, activeInterviewTTL)
}

func activeInterviewKey(userID uint) string {
	return fmt.Sprintf("interview:active:%d", userID)
}
