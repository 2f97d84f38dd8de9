package service

import (
	"context"
	"encoding/json"
	"interview_trainer_backend/pkg/monitoring"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// FallbackTurnScore 模型不可用或回复无法解析时的单轮兜底分
	FallbackTurnScore = 5
	// FallbackTurnReply 兜底追问，保证面试流程不中断
	FallbackTurnReply = "Let's move forward."
	// FallbackReportText 报告生成失败时的占位文本
	FallbackReportText = "Report generated."
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// TurnScore 单轮评估结果。Degraded 表示该结果来自兜底路径而非模型输出。
type TurnScore struct {
	Score    float64
	Question string
	Degraded bool
	Reason   string
}

// ReportText 结束报告文本
type ReportText struct {
	Text     string
	Degraded bool
	Reason   string
}

// ContentScorer 负责把模型的自由文本回复解析成结构化的轮次评估。
// 模型经常在 JSON 外再裹一层 markdown 代码块或说明文字，所以解析
// 只认首个 '{' 到末个 '}' 之间的片段。
type ContentScorer struct {
	generator contentGenerator
	logger    *zap.Logger
}

func NewContentScorer(generator contentGenerator, logger *zap.Logger) *ContentScorer {
	return &ContentScorer{generator: generator, logger: logger}
}

// ScoreTurn 请求模型评估上一答案并给出下一问。任何失败都退化为
// 兜底分和兜底追问，绝不向调用方返回错误。
func (s *ContentScorer) ScoreTurn(ctx context.Context, prompt string) TurnScore {
	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn("turn scoring degraded", zap.Error(err))
		monitoring.UpstreamFallbackCounter.WithLabelValues("gemini").Inc()
		return TurnScore{
			Score:    FallbackTurnScore,
			Question: FallbackTurnReply,
			Degraded: true,
			Reason:   err.Error(),
		}
	}

	result := TurnScore{Score: FallbackTurnScore, Question: FallbackTurnReply}

	fragment, ok := extractJSONObject(raw)
	if !ok {
		s.logger.Warn("model reply carried no JSON object", zap.String("reply", raw))
		monitoring.UpstreamFallbackCounter.WithLabelValues("gemini").Inc()
		result.Degraded = true
		result.Reason = "no JSON object in model reply"
		return result
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		s.logger.Warn("model reply JSON did not parse", zap.Error(err), zap.String("fragment", fragment))
		monitoring.UpstreamFallbackCounter.WithLabelValues("gemini").Inc()
		result.Degraded = true
		result.Reason = "malformed JSON in model reply"
		return result
	}

	// 缺字段或零值字段逐个保留兜底值，能用的部分照常采纳
	if score, ok := coerceFloat(parsed["score"]); ok && score != 0 {
		result.Score = score
	}
	if question, ok := parsed["question"].(string); ok && question != "" {
		result.Question = question
	}
	return result
}

// GenerateReport 请求模型生成结束报告的自由文本。
func (s *ContentScorer) GenerateReport(ctx context.Context, prompt string) ReportText {
	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn("report generation degraded", zap.Error(err))
		monitoring.UpstreamFallbackCounter.WithLabelValues("gemini").Inc()
		return ReportText{Text: FallbackReportText, Degraded: true, Reason: err.Error()}
	}
	return ReportText{Text: raw}
}

// extractJSONObject 截取首个 '{' 到末个 '}' 之间的片段
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func coerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
