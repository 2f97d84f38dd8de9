package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"interview_trainer_backend/internal/model"
	"interview_trainer_backend/internal/util"
	"interview_trainer_backend/pkg/monitoring"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type interviewStore interface {
	Create(iv *model.Interview) error
	ActiveByUser(userID uint) (*model.Interview, error)
	UpdateContext(interviewID uint, fields map[string]interface{}) error
	Close(iv *model.Interview) error
}

type questionStore interface {
	LatestUnscored(interviewID uint) (*model.Question, error)
	CompleteTurn(prevQuestionID uint, score float64, next *model.Question) error
	AverageScore(interviewID uint) (float64, error)
}

type metricAppender interface {
	Append(m *model.BehaviorMetric) error
}

type transcriptStore interface {
	Append(e *model.TranscriptEntry) error
	ByInterview(interviewID uint) ([]model.TranscriptEntry, error)
}

type documentStore interface {
	Create(d *model.Document) error
}

type datasetStore interface {
	Append(row *model.InterviewDataset) error
	ByUser(userID uint) ([]model.InterviewDataset, error)
}

type deepAnalyzer interface {
	Analyze(ctx context.Context, payload AnalyzePayload) DeepScore
	AnalyzeForReport(ctx context.Context, payload AnalyzePayload) DeepScore
	Train()
}

type fileStore interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

// InterviewService 面试会话编排：开场、逐轮问答、行为采样、结束报告。
// 所有会话状态都在数据库行上，服务本身无状态，可水平扩展。
type InterviewService struct {
	interviews interviewStore
	questions  questionStore
	metrics    metricAppender
	transcript transcriptStore
	documents  documentStore
	dataset    datasetStore
	behavior   *BehaviorService
	scorer     *ContentScorer
	brain      deepAnalyzer
	storage    fileStore
	logger     *zap.Logger
}

func NewInterviewService(
	interviews interviewStore,
	questions questionStore,
	metrics metricAppender,
	transcript transcriptStore,
	documents documentStore,
	dataset datasetStore,
	behavior *BehaviorService,
	scorer *ContentScorer,
	brain deepAnalyzer,
	storage fileStore,
	logger *zap.Logger,
) *InterviewService {
	return &InterviewService{
		interviews: interviews,
		questions:  questions,
		metrics:    metrics,
		transcript: transcript,
		documents:  documents,
		dataset:    dataset,
		behavior:   behavior,
		scorer:     scorer,
		brain:      brain,
		storage:    storage,
		logger:     logger,
	}
}

// StartResult 开场接口的响应体
type StartResult struct {
	Message     string `json:"message"`
	InterviewID uint   `json:"interviewId"`
}

// Start 开启新会话并摄入随附的简历。简历解析失败只跳过该文件，
// 不影响会话创建。
func (s *InterviewService) Start(ctx context.Context, userID uint, files []*multipart.FileHeader) (*StartResult, error) {
	iv := &model.Interview{
		UserID:             userID,
		Status:             model.InterviewOpen,
		Difficulty:         model.DifficultyMedium,
		PersonaGender:      model.DefaultPersonaGender,
		PersonaPersonality: model.DefaultPersonaPersonality,
		PersonaTone:        model.DefaultPersonaTone,
		StartTime:          time.Now(),
	}
	if err := s.interviews.Create(iv); err != nil {
		return nil, fmt.Errorf("create interview: %w", err)
	}

	var kb strings.Builder
	for _, fh := range files {
		text, err := s.ingestResume(ctx, iv, fh)
		if err != nil {
			s.logger.Warn("resume skipped",
				zap.String("filename", fh.Filename),
				zap.Uint("interview_id", iv.ID),
				zap.Error(err))
			continue
		}
		kb.WriteString(text)
		kb.WriteString("\n")
	}

	if kb.Len() > 0 {
		if err := s.interviews.UpdateContext(iv.ID, map[string]interface{}{
			"knowledge_base": kb.String(),
		}); err != nil {
			return nil, fmt.Errorf("persist knowledge base: %w", err)
		}
	}

	s.logger.Info("interview started",
		zap.Uint("interview_id", iv.ID),
		zap.Uint("user_id", userID),
		zap.Int("cv_files", len(files)))

	return &StartResult{Message: "Upload successful", InterviewID: iv.ID}, nil
}

func (s *InterviewService) ingestResume(ctx context.Context, iv *model.Interview, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	contentType := fh.Header.Get("Content-Type")
	text, err := util.ExtractResumeText(fh.Filename, contentType, data)
	if err != nil {
		return "", err
	}

	// 原件归档失败不阻塞文本摄入
	storedName := model.GenerateUUID() + strings.ToLower(filepath.Ext(fh.Filename))
	if _, err := s.storage.Upload(ctx, storedName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		s.logger.Warn("resume archive failed", zap.String("filename", fh.Filename), zap.Error(err))
	} else if err := s.documents.Create(&model.Document{
		UserID:      iv.UserID,
		InterviewID: iv.ID,
		Type:        "cv",
		Filename:    fh.Filename,
		StoredName:  storedName,
		UploadTime:  time.Now(),
	}); err != nil {
		s.logger.Warn("document record failed", zap.String("filename", fh.Filename), zap.Error(err))
	}

	return text, nil
}

// SetJob 更新活跃会话的岗位描述
func (s *InterviewService) SetJob(userID uint, jobDescription string) error {
	iv, err := s.active(userID)
	if err != nil {
		return err
	}
	return s.interviews.UpdateContext(iv.ID, map[string]interface{}{
		"job_description": jobDescription,
	})
}

// SetDifficulty 手动覆盖活跃会话的难度档位
func (s *InterviewService) SetDifficulty(userID uint, difficulty string) error {
	iv, err := s.active(userID)
	if err != nil {
		return err
	}
	return s.interviews.UpdateContext(iv.ID, map[string]interface{}{
		"difficulty": difficulty,
	})
}

// SetPersona 更新活跃会话的面试官人设
func (s *InterviewService) SetPersona(userID uint, gender, personality, tone string) error {
	iv, err := s.active(userID)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{}
	if gender != "" {
		fields["persona_gender"] = gender
	}
	if personality != "" {
		fields["persona_personality"] = personality
	}
	if tone != "" {
		fields["persona_tone"] = tone
	}
	if len(fields) == 0 {
		return nil
	}
	return s.interviews.UpdateContext(iv.ID, fields)
}

// MetricResult 行为采样接口的响应体
type MetricResult struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

// RecordMetric 追加一条摄像头行为样本
func (s *InterviewService) RecordMetric(userID uint, eyeContact, posture, emotion string) (*MetricResult, error) {
	iv, err := s.active(userID)
	if err != nil {
		return nil, err
	}

	m := &model.BehaviorMetric{
		InterviewID: iv.ID,
		Timestamp:   time.Now(),
		EyeContact:  eyeContact,
		Posture:     posture,
		Emotion:     emotion,
	}
	if err := s.metrics.Append(m); err != nil {
		return nil, fmt.Errorf("append behavior metric: %w", err)
	}
	return &MetricResult{Message: "Saved metrics snapshot", ID: m.ID}, nil
}

// TurnMetrics 回给前端仪表盘的行为即时分
type TurnMetrics struct {
	Eye     float64 `json:"eye"`
	Posture float64 `json:"posture"`
}

// TurnResult 单轮问答的响应体
type TurnResult struct {
	Reply      string      `json:"reply"`
	Score      float64     `json:"score"`
	Difficulty string      `json:"difficulty"`
	Metrics    TurnMetrics `json:"metrics"`
	DeepScore  DeepScore   `json:"deepScore"`
}

// AdvanceTurn 推进一轮面试：记录用户发言、回填上一问的评分、
// 生成下一问，并采纳深度分析服务建议的难度。
func (s *InterviewService) AdvanceTurn(ctx context.Context, userID uint, message string) (*TurnResult, error) {
	start := time.Now()
	defer func() {
		monitoring.TurnDuration.Observe(time.Since(start).Seconds())
	}()

	iv, err := s.active(userID)
	if err != nil {
		return nil, err
	}

	if err := s.transcript.Append(&model.TranscriptEntry{
		InterviewID: iv.ID,
		Role:        model.TranscriptRoleUser,
		Content:     message,
	}); err != nil {
		return nil, fmt.Errorf("append transcript: %w", err)
	}

	// 上一问（首轮没有）
	var prevQuestionID uint
	if prev, err := s.questions.LatestUnscored(iv.ID); err == nil {
		prevQuestionID = prev.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup pending question: %w", err)
	}

	snapshot := s.behavior.LatestSnapshot(iv.ID)

	prompt := ComposeTurnPrompt(TurnPromptInput{
		PersonaGender:      iv.PersonaGender,
		PersonaPersonality: iv.PersonaPersonality,
		JobDescription:     iv.JobDescription,
		Difficulty:         iv.Difficulty,
		KnowledgeBase:      iv.KnowledgeBase,
		BehaviorStatus:     snapshot.Status,
	})
	turn := s.scorer.ScoreTurn(ctx, prompt)

	if err := s.questions.CompleteTurn(prevQuestionID, turn.Score, &model.Question{
		InterviewID:  iv.ID,
		QuestionText: turn.Question,
		Difficulty:   iv.Difficulty,
	}); err != nil {
		return nil, fmt.Errorf("complete turn: %w", err)
	}

	avgContent, err := s.questions.AverageScore(iv.ID)
	if err != nil {
		return nil, fmt.Errorf("average content score: %w", err)
	}

	deep := s.brain.Analyze(ctx, AnalyzePayload{
		AvgContentScore: avgContent,
		AvgEyeContact:   snapshot.EyeScore,
		AvgPosture:      snapshot.PostureScore,
		AvgEmotionScore: snapshot.CompositeScore,
		UserID:          userID,
	})

	// 采纳建议难度；该更新是建议性的，失败只记日志
	if deep.RecommendedDifficulty != "" && deep.RecommendedDifficulty != iv.Difficulty {
		if err := s.interviews.UpdateContext(iv.ID, map[string]interface{}{
			"difficulty": deep.RecommendedDifficulty,
		}); err != nil {
			s.logger.Warn("difficulty adoption failed",
				zap.Uint("interview_id", iv.ID),
				zap.String("recommended", deep.RecommendedDifficulty),
				zap.Error(err))
		} else {
			iv.Difficulty = deep.RecommendedDifficulty
		}
	}

	return &TurnResult{
		Reply:      turn.Question,
		Score:      turn.Score,
		Difficulty: iv.Difficulty,
		Metrics:    TurnMetrics{Eye: snapshot.EyeScore, Posture: snapshot.PostureScore},
		DeepScore:  deep,
	}, nil
}

// ScoreDetails 报告里的行为逐轴均分
type ScoreDetails struct {
	Emotion    float64 `json:"emotion"`
	EyeContact float64 `json:"eyeContact"`
	Posture    float64 `json:"posture"`
}

// ReportScores 报告的量化部分
type ReportScores struct {
	Overall     float64      `json:"overall"`
	ContentAvg  float64      `json:"contentAvg"`
	BehaviorAvg float64      `json:"behaviorAvg"`
	Details     ScoreDetails `json:"details"`
}

// ReportResult 结束报告的响应体
type ReportResult struct {
	Reply     string       `json:"reply"`
	DeepScore DeepScore    `json:"deepScore"`
	Scores    ReportScores `json:"scores"`
	Report    bool         `json:"report"`
}

// Finalize 结束活跃会话：汇总内容分与行为分、生成招聘官报告、
// 落库训练快照并异步通知深度分析服务重训练。
func (s *InterviewService) Finalize(ctx context.Context, userID uint) (*ReportResult, error) {
	iv, err := s.active(userID)
	if err != nil {
		return nil, err
	}

	avgContent, err := s.questions.AverageScore(iv.ID)
	if err != nil {
		return nil, fmt.Errorf("average content score: %w", err)
	}

	averages, err := s.behavior.SessionAverages(iv.ID)
	if err != nil {
		return nil, fmt.Errorf("aggregate behavior metrics: %w", err)
	}
	behaviorAvg := averages.Composite()

	overall := 0.5*avgContent + 0.5*behaviorAvg

	deep := s.brain.AnalyzeForReport(ctx, AnalyzePayload{
		AvgContentScore: avgContent,
		AvgEyeContact:   averages.Eye,
		AvgPosture:      averages.Posture,
		AvgEmotionScore: averages.Emotion,
		UserID:          userID,
	})

	entries, err := s.transcript.ByInterview(iv.ID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	prompt := ComposeReportPrompt(ReportPromptInput{
		JobDescription:   iv.JobDescription,
		OverallScore:     overall,
		HireabilityIndex: deep.HireabilityIndex,
		CandidateLevel:   deep.CandidateLevel,
		Transcript:       formatTranscript(entries),
	})
	report := s.scorer.GenerateReport(ctx, prompt)

	iv.ScoreOverall = overall
	iv.EmotionalScore = averages.Emotion
	iv.EyeContactScore = averages.Eye
	iv.PostureScore = averages.Posture
	iv.FeedbackText = report.Text
	if err := s.interviews.Close(iv); err != nil {
		return nil, fmt.Errorf("close interview: %w", err)
	}

	if err := s.dataset.Append(&model.InterviewDataset{
		InterviewID:     iv.ID,
		UserID:          iv.UserID,
		JobDescription:  iv.JobDescription,
		StartTime:       iv.StartTime,
		EndTime:         iv.EndTime,
		ScoreOverall:    overall,
		EmotionalScore:  averages.Emotion,
		EyeContactScore: averages.Eye,
		PostureScore:    averages.Posture,
		FeedbackText:    report.Text,
	}); err != nil {
		return nil, fmt.Errorf("append dataset snapshot: %w", err)
	}

	go s.brain.Train()

	s.logger.Info("interview finalized",
		zap.Uint("interview_id", iv.ID),
		zap.Float64("overall", overall),
		zap.Bool("report_degraded", report.Degraded))

	return &ReportResult{
		Reply:     report.Text,
		DeepScore: deep,
		Scores: ReportScores{
			Overall:     overall,
			ContentAvg:  avgContent,
			BehaviorAvg: behaviorAvg,
			Details: ScoreDetails{
				Emotion:    averages.Emotion,
				EyeContact: averages.Eye,
				Posture:    averages.Posture,
			},
		},
		Report: true,
	}, nil
}

// HistoryStats 历史汇总。分数字段序列化为保留一位小数的字符串。
type HistoryStats struct {
	TotalInterviews int    `json:"totalInterviews"`
	AvgScore        string `json:"avgScore"`
	Improvement     string `json:"improvement"`
}

// HistoryResult 历史接口的响应体
type HistoryResult struct {
	History []model.InterviewDataset `json:"history"`
	Stats   HistoryStats             `json:"stats"`
}

// History 返回用户按时间倒序的往期面试与汇总统计。
// Improvement 为最近一场与最早一场的总分差。
func (s *InterviewService) History(userID uint) (*HistoryResult, error) {
	rows, err := s.dataset.ByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	stats := HistoryStats{TotalInterviews: len(rows), AvgScore: "0", Improvement: "0.0"}
	if len(rows) > 0 {
		var sum float64
		for _, r := range rows {
			sum += r.ScoreOverall
		}
		stats.AvgScore = fmt.Sprintf("%.1f", sum/float64(len(rows)))

		improvement := 0.0
		if len(rows) > 1 {
			improvement = rows[0].ScoreOverall - rows[len(rows)-1].ScoreOverall
		}
		stats.Improvement = fmt.Sprintf("%.1f", improvement)
	}

	if rows == nil {
		rows = []model.InterviewDataset{}
	}
	return &HistoryResult{History: rows, Stats: stats}, nil
}

func (s *InterviewService) active(userID uint) (*model.Interview, error) {
	iv, err := s.interviews.ActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoActiveInterview
		}
		return nil, fmt.Errorf("resolve active interview: %w", err)
	}
	return iv, nil
}

func formatTranscript(entries []model.TranscriptEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		role := e.Role
		if role == model.TranscriptRoleUser {
			role = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, e.Content))
	}
	return lines
}
