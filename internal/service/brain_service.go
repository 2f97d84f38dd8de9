package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"interview_trainer_backend/internal/config"
	"interview_trainer_backend/pkg/monitoring"
	"net/http"

	"go.uber.org/zap"
)

// AnalyzePayload 送往深度分析服务 /analyze 的聚合特征
type AnalyzePayload struct {
	AvgContentScore float64 `json:"avg_content_score"`
	AvgEyeContact   float64 `json:"avg_eye_contact"`
	AvgPosture      float64 `json:"avg_posture"`
	AvgEmotionScore float64 `json:"avg_emotion_score"`
	UserID          uint    `json:"userId"`
}

// DeepScore 深度分析服务的评估结果。服务不可用时返回占位值，
// Degraded 标记该结果不是真实分析。
type DeepScore struct {
	HireabilityIndex      float64 `json:"hireability_index"`
	CandidateLevel        string  `json:"candidate_level"`
	RecommendedDifficulty string  `json:"recommended_difficulty,omitempty"`
	Momentum              string  `json:"momentum,omitempty"`
	Degraded              bool    `json:"-"`
}

// BrainService 调用旁路的深度分析服务。该服务是尽力而为的增强，
// 超时上限很短，失败一律降级，不允许拖慢面试轮次。
type BrainService struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewBrainService(cfg config.BrainConfig, logger *zap.Logger) *BrainService {
	return &BrainService{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Analyze 轮次中的深度评估。失败时返回 {0, "Analyzing..."} 占位。
func (s *BrainService) Analyze(ctx context.Context, payload AnalyzePayload) DeepScore {
	score, err := s.post(ctx, payload)
	if err != nil {
		s.logger.Warn("deep analysis unavailable", zap.Error(err))
		monitoring.UpstreamFallbackCounter.WithLabelValues("brain").Inc()
		return DeepScore{CandidateLevel: "Analyzing...", Degraded: true}
	}
	return score
}

// AnalyzeForReport 报告阶段的深度评估，降级时额外带上持平的势头标记。
func (s *BrainService) AnalyzeForReport(ctx context.Context, payload AnalyzePayload) DeepScore {
	score, err := s.post(ctx, payload)
	if err != nil {
		s.logger.Warn("deep analysis unavailable for report", zap.Error(err))
		monitoring.UpstreamFallbackCounter.WithLabelValues("brain").Inc()
		return DeepScore{CandidateLevel: "Analyzing...", Momentum: "Stable", Degraded: true}
	}
	return score
}

// Train 通知深度分析服务有新的完整会话可供重训练。
// 纯粹尽力而为，调用方应在独立 goroutine 里执行。
func (s *BrainService) Train() {
	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/train", bytes.NewReader([]byte("{}")))
	if err != nil {
		s.logger.Warn("train request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("train notification failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	s.logger.Info("train notification sent", zap.Int("status", resp.StatusCode))
}

func (s *BrainService) post(ctx context.Context, payload AnalyzePayload) (DeepScore, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return DeepScore{}, fmt.Errorf("marshal analyze payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return DeepScore{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return DeepScore{}, fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DeepScore{}, fmt.Errorf("analyze returned status %d", resp.StatusCode)
	}

	var score DeepScore
	if err := json.NewDecoder(resp.Body).Decode(&score); err != nil {
		return DeepScore{}, fmt.Errorf("decode analyze response: %w", err)
	}
	return score, nil
}
