package service

import (
	"errors"
	"fmt"
	"interview_trainer_backend/internal/model"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	eyeContactGood = "Good"
	postureGood    = "Good Posture"
)

// negativeEmotions 在实时打分时扣分的情绪标签
var negativeEmotions = map[string]bool{
	"angry":     true,
	"sad":       true,
	"scared":    true,
	"disgusted": true,
	"no face":   true,
}

// calmEmotions 在报告聚合时计满分的情绪标签
var calmEmotions = map[string]bool{
	"neutral":   true,
	"happy":     true,
	"surprised": true,
}

type behaviorMetricStore interface {
	Latest(interviewID uint) (*model.BehaviorMetric, error)
	AllByInterview(interviewID uint) ([]model.BehaviorMetric, error)
}

// BehaviorSnapshot 基于最近一条行为样本的实时评估，用于下一问的提示词
// 和自适应难度反馈。
type BehaviorSnapshot struct {
	EyeScore       float64
	PostureScore   float64
	CompositeScore float64
	Status         string
}

// BehaviorAverages 报告阶段对全量样本的逐轴平均。
// 注意：与 LatestSnapshot 的打分规则不同（10/5 二值制 vs 10 起扣分制），
// 两套规则各有调用方依赖，不做统一。
type BehaviorAverages struct {
	Eye     float64
	Posture float64
	Emotion float64
}

type BehaviorService struct {
	metrics behaviorMetricStore
	logger  *zap.Logger
}

func NewBehaviorService(metrics behaviorMetricStore, logger *zap.Logger) *BehaviorService {
	return &BehaviorService{metrics: metrics, logger: logger}
}

// LatestSnapshot 评估会话最近一条行为样本。
// 没有样本时返回中性默认值；查询出错时返回兜底值而不是向上抛错，
// 行为信号缺失不能中断面试轮次。
func (s *BehaviorService) LatestSnapshot(interviewID uint) BehaviorSnapshot {
	latest, err := s.metrics.Latest(interviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BehaviorSnapshot{EyeScore: 10, PostureScore: 10, CompositeScore: 10, Status: "Normal"}
		}
		s.logger.Warn("behavior lookup failed, using fallback", zap.Error(err))
		return BehaviorSnapshot{EyeScore: 7, PostureScore: 7, CompositeScore: 7, Status: "Normal"}
	}

	eye := strings.TrimSpace(latest.EyeContact)
	posture := strings.TrimSpace(latest.Posture)
	emotion := strings.TrimSpace(latest.Emotion)

	var issues []string
	score := 10.0

	eyeScore := 4.0
	if eye == eyeContactGood {
		eyeScore = 10
	}
	postureScore := 4.0
	if posture == postureGood {
		postureScore = 10
	}

	if eye != eyeContactGood {
		issues = append(issues, "not making eye contact (looking away)")
		score -= 3
	}
	if posture != postureGood {
		issues = append(issues, "slouching/poor posture")
		score -= 3
	}
	if negativeEmotions[strings.ToLower(emotion)] {
		issues = append(issues, fmt.Sprintf("appearing %s", emotion))
		score -= 2
	}

	if score < 0 {
		score = 0
	}

	status := "User behavior is excellent."
	if len(issues) > 0 {
		status = fmt.Sprintf("USER BEHAVIOR ISSUES: The candidate is currently %s.", strings.Join(issues, " and "))
	}

	return BehaviorSnapshot{
		EyeScore:       eyeScore,
		PostureScore:   postureScore,
		CompositeScore: score,
		Status:         status,
	}
}

// SessionAverages 汇总整场面试的行为样本，供最终报告使用。
// 没有样本时各轴均为 0。
func (s *BehaviorService) SessionAverages(interviewID uint) (BehaviorAverages, error) {
	metrics, err := s.metrics.AllByInterview(interviewID)
	if err != nil {
		return BehaviorAverages{}, err
	}
	if len(metrics) == 0 {
		return BehaviorAverages{}, nil
	}

	var avg BehaviorAverages
	for _, m := range metrics {
		if strings.TrimSpace(m.EyeContact) == eyeContactGood {
			avg.Eye += 10
		} else {
			avg.Eye += 5
		}
		if strings.TrimSpace(m.Posture) == postureGood {
			avg.Posture += 10
		} else {
			avg.Posture += 5
		}
		if calmEmotions[strings.ToLower(strings.TrimSpace(m.Emotion))] {
			avg.Emotion += 10
		} else {
			avg.Emotion += 5
		}
	}

	n := float64(len(metrics))
	avg.Eye /= n
	avg.Posture /= n
	avg.Emotion /= n
	return avg, nil
}

// Composite 三轴平均，即报告里的 behaviorAvg
func (a BehaviorAverages) Composite() float64 {
	return (a.Eye + a.Posture + a.Emotion) / 3
}
