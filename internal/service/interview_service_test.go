package service

import (
	"context"
	"fmt"
	"interview_trainer_backend/internal/model"
	"interview_trainer_backend/internal/util"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeInterviewStore struct {
	nextID  uint
	rows    map[uint]*model.Interview
	updates []map[string]interface{}
	closed  []*model.Interview
}

func newFakeInterviewStore() *fakeInterviewStore {
	return &fakeInterviewStore{nextID: 1, rows: map[uint]*model.Interview{}}
}

func (f *fakeInterviewStore) Create(iv *model.Interview) error {
	iv.ID = f.nextID
	f.nextID++
	copied := *iv
	f.rows[iv.ID] = &copied
	return nil
}

func (f *fakeInterviewStore) ActiveByUser(userID uint) (*model.Interview, error) {
	var latest *model.Interview
	for _, iv := range f.rows {
		if iv.UserID == userID && iv.Status == model.InterviewOpen {
			if latest == nil || iv.ID > latest.ID {
				latest = iv
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeInterviewStore) UpdateContext(interviewID uint, fields map[string]interface{}) error {
	iv, ok := f.rows[interviewID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.updates = append(f.updates, fields)
	if v, ok := fields["job_description"]; ok {
		iv.JobDescription = v.(string)
	}
	if v, ok := fields["difficulty"]; ok {
		iv.Difficulty = v.(string)
	}
	if v, ok := fields["knowledge_base"]; ok {
		iv.KnowledgeBase = v.(string)
	}
	if v, ok := fields["persona_gender"]; ok {
		iv.PersonaGender = v.(string)
	}
	if v, ok := fields["persona_personality"]; ok {
		iv.PersonaPersonality = v.(string)
	}
	if v, ok := fields["persona_tone"]; ok {
		iv.PersonaTone = v.(string)
	}
	return nil
}

func (f *fakeInterviewStore) Close(iv *model.Interview) error {
	stored, ok := f.rows[iv.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	iv.EndTime = &now
	iv.Status = model.InterviewClosed
	*stored = *iv
	f.closed = append(f.closed, stored)
	return nil
}

type fakeQuestionStore struct {
	questions []*model.Question
	avg       float64
}

func (f *fakeQuestionStore) LatestUnscored(interviewID uint) (*model.Question, error) {
	for i := len(f.questions) - 1; i >= 0; i-- {
		q := f.questions[i]
		if q.InterviewID == interviewID && q.Score == 0 {
			return q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeQuestionStore) CompleteTurn(prevQuestionID uint, score float64, next *model.Question) error {
	if prevQuestionID > 0 {
		for _, q := range f.questions {
			if q.ID == prevQuestionID {
				q.Score = score
			}
		}
	}
	next.ID = uint(len(f.questions) + 1)
	f.questions = append(f.questions, next)
	return nil
}

func (f *fakeQuestionStore) AverageScore(interviewID uint) (float64, error) {
	return f.avg, nil
}

type fakeTranscriptStore struct {
	entries []model.TranscriptEntry
}

func (f *fakeTranscriptStore) Append(e *model.TranscriptEntry) error {
	e.ID = uint(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeTranscriptStore) ByInterview(interviewID uint) ([]model.TranscriptEntry, error) {
	var out []model.TranscriptEntry
	for _, e := range f.entries {
		if e.InterviewID == interviewID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeDocumentStore struct {
	docs []model.Document
}

func (f *fakeDocumentStore) Create(d *model.Document) error {
	f.docs = append(f.docs, *d)
	return nil
}

type fakeDatasetStore struct {
	rows []model.InterviewDataset
}

func (f *fakeDatasetStore) Append(row *model.InterviewDataset) error {
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeDatasetStore) ByUser(userID uint) ([]model.InterviewDataset, error) {
	var out []model.InterviewDataset
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

type fakeBrain struct {
	mu       sync.Mutex
	turn     DeepScore
	report   DeepScore
	payloads []AnalyzePayload
	trained  chan struct{}
}

func newFakeBrain() *fakeBrain {
	return &fakeBrain{
		turn:    DeepScore{CandidateLevel: "Analyzing...", Degraded: true},
		report:  DeepScore{CandidateLevel: "Analyzing...", Momentum: "Stable", Degraded: true},
		trained: make(chan struct{}, 1),
	}
}

func (f *fakeBrain) Analyze(ctx context.Context, payload AnalyzePayload) DeepScore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return f.turn
}

func (f *fakeBrain) AnalyzeForReport(ctx context.Context, payload AnalyzePayload) DeepScore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return f.report
}

func (f *fakeBrain) Train() {
	select {
	case f.trained <- struct{}{}:
	default:
	}
}

type fakeFileStore struct {
	uploads []string
}

func (f *fakeFileStore) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	f.uploads = append(f.uploads, filename)
	return "/uploads/" + filename, nil
}

type serviceFixture struct {
	interviews *fakeInterviewStore
	questions  *fakeQuestionStore
	metrics    *fakeMetricStore
	transcript *fakeTranscriptStore
	documents  *fakeDocumentStore
	dataset    *fakeDatasetStore
	brain      *fakeBrain
	storage    *fakeFileStore
	generator  *stubGenerator
	svc        *InterviewService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		interviews: newFakeInterviewStore(),
		questions:  &fakeQuestionStore{},
		metrics:    &fakeMetricStore{},
		transcript: &fakeTranscriptStore{},
		documents:  &fakeDocumentStore{},
		dataset:    &fakeDatasetStore{},
		brain:      newFakeBrain(),
		storage:    &fakeFileStore{},
		generator:  &stubGenerator{reply: `{"score": 8, "question": "Why Go?"}`},
	}

	logger := zap.NewNop()
	f.svc = NewInterviewService(
		f.interviews,
		f.questions,
		f.metrics,
		f.transcript,
		f.documents,
		f.dataset,
		NewBehaviorService(f.metrics, logger),
		NewContentScorer(f.generator, logger),
		f.brain,
		f.storage,
		logger,
	)
	return f
}

func (f *serviceFixture) startInterview(t *testing.T, userID uint) uint {
	t.Helper()
	result, err := f.svc.Start(context.Background(), userID, nil)
	if err != nil {
		t.Fatal(err)
	}
	return result.InterviewID
}

func TestStartCreatesOpenSessionWithDefaults(t *testing.T) {
	f := newServiceFixture()

	result, err := f.svc.Start(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Message != "Upload successful" {
		t.Errorf("message = %q", result.Message)
	}

	iv, err := f.interviews.ActiveByUser(7)
	if err != nil {
		t.Fatal(err)
	}
	if iv.Difficulty != "medium" {
		t.Errorf("difficulty = %q, want medium", iv.Difficulty)
	}
	if iv.PersonaGender != "neutral" || iv.PersonaPersonality != "professional" {
		t.Errorf("persona defaults wrong: %+v", iv)
	}
	if iv.Status != model.InterviewOpen {
		t.Errorf("status = %q, want open", iv.Status)
	}
}

func TestOperationsRequireActiveSession(t *testing.T) {
	f := newServiceFixture()

	if err := f.svc.SetJob(99, "Backend Engineer"); err != util.ErrNoActiveInterview {
		t.Errorf("SetJob err = %v, want ErrNoActiveInterview", err)
	}
	if _, err := f.svc.RecordMetric(99, "Good", "Good Posture", "happy"); err != util.ErrNoActiveInterview {
		t.Errorf("RecordMetric err = %v, want ErrNoActiveInterview", err)
	}
	if _, err := f.svc.AdvanceTurn(context.Background(), 99, "hello"); err != util.ErrNoActiveInterview {
		t.Errorf("AdvanceTurn err = %v, want ErrNoActiveInterview", err)
	}
	if _, err := f.svc.Finalize(context.Background(), 99); err != util.ErrNoActiveInterview {
		t.Errorf("Finalize err = %v, want ErrNoActiveInterview", err)
	}
}

func TestAdvanceTurnFirstTurnSkipsBackfill(t *testing.T) {
	f := newServiceFixture()
	id := f.startInterview(t, 1)

	result, err := f.svc.AdvanceTurn(context.Background(), 1, "Hello, I am ready.")
	if err != nil {
		t.Fatal(err)
	}

	if result.Reply != "Why Go?" {
		t.Errorf("reply = %q", result.Reply)
	}
	if result.Score != 8 {
		t.Errorf("score = %v, want 8", result.Score)
	}
	if len(f.questions.questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(f.questions.questions))
	}
	q := f.questions.questions[0]
	if q.InterviewID != id || q.Score != 0 {
		t.Errorf("new question should be unscored: %+v", q)
	}
	if len(f.transcript.entries) != 1 || f.transcript.entries[0].Role != model.TranscriptRoleUser {
		t.Errorf("transcript entries = %+v", f.transcript.entries)
	}
}

func TestAdvanceTurnBackfillsPreviousQuestion(t *testing.T) {
	f := newServiceFixture()
	f.startInterview(t, 1)

	if _, err := f.svc.AdvanceTurn(context.Background(), 1, "first answer"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AdvanceTurn(context.Background(), 1, "second answer"); err != nil {
		t.Fatal(err)
	}

	if len(f.questions.questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(f.questions.questions))
	}
	if f.questions.questions[0].Score != 8 {
		t.Errorf("first question score = %v, want 8 (backfilled on second turn)", f.questions.questions[0].Score)
	}
	if f.questions.questions[1].Score != 0 {
		t.Errorf("latest question should stay unscored, got %v", f.questions.questions[1].Score)
	}
}

func TestAdvanceTurnAdoptsRecommendedDifficulty(t *testing.T) {
	f := newServiceFixture()
	f.startInterview(t, 1)
	f.brain.turn = DeepScore{HireabilityIndex: 60, CandidateLevel: "Mid", RecommendedDifficulty: "hard"}

	result, err := f.svc.AdvanceTurn(context.Background(), 1, "answer")
	if err != nil {
		t.Fatal(err)
	}

	if result.Difficulty != "hard" {
		t.Errorf("difficulty = %q, want hard", result.Difficulty)
	}
	iv, _ := f.interviews.ActiveByUser(1)
	if iv.Difficulty != "hard" {
		t.Errorf("persisted difficulty = %q, want hard", iv.Difficulty)
	}
}

func TestAdvanceTurnFeedsBehaviorIntoPromptAndBrain(t *testing.T) {
	f := newServiceFixture()
	f.startInterview(t, 1)
	f.metrics.metrics = []model.BehaviorMetric{
		{EyeContact: "Looking Away", Posture: "Good Posture", Emotion: "neutral"},
	}

	result, err := f.svc.AdvanceTurn(context.Background(), 1, "answer")
	if err != nil {
		t.Fatal(err)
	}

	if result.Metrics.Eye != 4 || result.Metrics.Posture != 10 {
		t.Errorf("metrics = %+v", result.Metrics)
	}

	payload := f.brain.payloads[0]
	if payload.AvgEyeContact != 4 || payload.AvgPosture != 10 || payload.AvgEmotionScore != 7 {
		t.Errorf("brain payload = %+v", payload)
	}

	prompt := f.generator.prompts[0]
	want := "Behavioral Observation: USER BEHAVIOR ISSUES: The candidate is currently not making eye contact (looking away)."
	if !strings.Contains(prompt, want) {
		t.Errorf("prompt missing behavior status %q:\n%s", want, prompt)
	}
}

func TestAdvanceTurnSurvivesDegradedUpstreams(t *testing.T) {
	f := newServiceFixture()
	f.startInterview(t, 1)
	f.generator.err = fmt.Errorf("model offline")

	result, err := f.svc.AdvanceTurn(context.Background(), 1, "answer")
	if err != nil {
		t.Fatal(err)
	}

	if result.Reply != FallbackTurnReply || result.Score != FallbackTurnScore {
		t.Fatalf("expected fallback turn, got %+v", result)
	}
	if result.DeepScore.CandidateLevel != "Analyzing..." {
		t.Errorf("deep score fallback = %+v", result.DeepScore)
	}
}

func TestFinalizeComputesOverallAndClosesSession(t *testing.T) {
	f := newServiceFixture()
	f.startInterview(t, 1)
	f.questions.avg = 8
	// 两个样本：满分 + 全差 → 各轴均分 7.5，行为综合 7.5
	f.metrics.metrics = []model.BehaviorMetric{
		{EyeContact: "Good", Posture: "Good Posture", Emotion: "neutral"},
		{EyeContact: "Looking Away", Posture: "Slouching", Emotion: "angry"},
	}
	f.generator.reply = "Summary: solid performance."

	result, err := f.svc.Finalize(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if result.Scores.Overall != 7.75 {
		t.Errorf("overall = %v, want 7.75 (0.5*8 + 0.5*7.5)", result.Scores.Overall)
	}
	if result.Scores.ContentAvg != 8 || result.Scores.BehaviorAvg != 7.5 {
		t.Errorf("scores = %+v", result.Scores)
	}
	if result.Scores.Details.EyeContact != 7.5 || result.Scores.Details.Posture != 7.5 || result.Scores.Details.Emotion != 7.5 {
		t.Errorf("details = %+v", result.Scores.Details)
	}
	if result.Reply != "Summary: solid performance." {
		t.Errorf("reply = %q", result.Reply)
	}
	if !result.Report {
		t.Error("report flag not set")
	}

	// 会话关闭，后续操作 404
	if _, err := f.svc.AdvanceTurn(context.Background(), 1, "more"); err != util.ErrNoActiveInterview {
		t.Errorf("post-finalize turn err = %v, want ErrNoActiveInterview", err)
	}

	if len(f.dataset.rows) != 1 {
		t.Fatalf("dataset rows = %d, want 1", len(f.dataset.rows))
	}
	row := f.dataset.rows[0]
	if row.ScoreOverall != 7.75 || row.FeedbackText != "Summary: solid performance." {
		t.Errorf("dataset row = %+v", row)
	}

	select {
	case <-f.brain.trained:
	case <-time.After(time.Second):
		t.Error("train notification never fired")
	}
}

func TestFinalizeNoMetricsNoQuestions(t *testing.T) {
	f := newServiceFixture()
	f.startInterview(t, 1)

	result, err := f.svc.Finalize(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Scores.Overall != 0 || result.Scores.ContentAvg != 0 || result.Scores.BehaviorAvg != 0 {
		t.Errorf("scores = %+v, want zeros", result.Scores)
	}
}

func TestRecordMetricAppendsToActiveSession(t *testing.T) {
	f := newServiceFixture()
	id := f.startInterview(t, 1)

	// fakeMetricStore 不实现 Append，这里直连 service 层的校验逻辑
	result, err := f.svc.RecordMetric(1, "Good", "Slouching", "sad")
	if err != nil {
		t.Fatal(err)
	}
	if result.Message != "Saved metrics snapshot" {
		t.Errorf("message = %q", result.Message)
	}
	if len(f.metrics.appended) != 1 || f.metrics.appended[0].InterviewID != id {
		t.Fatalf("appended = %+v", f.metrics.appended)
	}
}

func TestHistoryStats(t *testing.T) {
	f := newServiceFixture()
	// rows 按 created_at 倒序返回：最新在前
	f.dataset.rows = []model.InterviewDataset{
		{UserID: 1, ScoreOverall: 5.0},
		{UserID: 1, ScoreOverall: 6.5},
		{UserID: 1, ScoreOverall: 8.0},
		{UserID: 2, ScoreOverall: 9.0},
	}

	result, err := f.svc.History(1)
	if err != nil {
		t.Fatal(err)
	}

	if result.Stats.TotalInterviews != 3 {
		t.Errorf("total = %d, want 3", result.Stats.TotalInterviews)
	}
	if result.Stats.AvgScore != "6.5" {
		t.Errorf("avg = %q, want 6.5", result.Stats.AvgScore)
	}
	// 最新(8.0) − 最早(5.0) = 3.0
	if result.Stats.Improvement != "3.0" {
		t.Errorf("improvement = %q, want 3.0", result.Stats.Improvement)
	}
}

func TestHistoryEmpty(t *testing.T) {
	f := newServiceFixture()

	result, err := f.svc.History(1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.TotalInterviews != 0 || result.Stats.AvgScore != "0" || result.Stats.Improvement != "0.0" {
		t.Errorf("stats = %+v", result.Stats)
	}
	if result.History == nil {
		t.Error("history should be an empty slice, not nil")
	}
}
