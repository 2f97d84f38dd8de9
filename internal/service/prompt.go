package service

import (
	"fmt"
	"strings"
)

const (
	defaultJobDescription = "Software Developer"
	defaultKnowledgeBase  = "No CV uploaded."
)

// TurnPromptInput 单轮提示词的输入，全部来自当前会话的上下文行
type TurnPromptInput struct {
	PersonaGender      string
	PersonaPersonality string
	JobDescription     string
	Difficulty         string
	KnowledgeBase      string
	BehaviorStatus     string
}

// ComposeTurnPrompt 生成单轮提示词：要求模型给上一答案评分并提出下一问，
// 只以 {"score": ..., "question": ...} 的 JSON 回复。
func ComposeTurnPrompt(in TurnPromptInput) string {
	job := in.JobDescription
	if job == "" {
		job = defaultJobDescription
	}
	kb := in.KnowledgeBase
	if kb == "" {
		kb = defaultKnowledgeBase
	}

	return fmt.Sprintf(`You are a %s interviewer with %s personality.
Role: %s. Difficulty Level: %s.
Candidate CV: %s
Behavioral Observation: %s

TASK:
1. Rate the user's last answer (0-10).
2. Ask the next question based on CV.

Respond ONLY in JSON: {"score": <number>, "question": "<text>"}`,
		in.PersonaGender,
		in.PersonaPersonality,
		job,
		strings.ToUpper(in.Difficulty),
		kb,
		in.BehaviorStatus,
	)
}

// ReportPromptInput 结束报告提示词的输入
type ReportPromptInput struct {
	JobDescription   string
	OverallScore     float64
	HireabilityIndex float64
	CandidateLevel   string
	Transcript       []string
}

// ComposeReportPrompt 生成结束报告提示词，期望自由文本的招聘官报告。
func ComposeReportPrompt(in ReportPromptInput) string {
	job := in.JobDescription
	if job == "" {
		job = defaultJobDescription
	}

	return fmt.Sprintf(`Role: %s.
Overall Score: %.1f/10.
Deep Analysis: Hireability %g%%, Level %s.
Transcript: %s
Write a professional recruiter report with: Summary, Strengths, and specific areas to improve.`,
		job,
		in.OverallScore,
		in.HireabilityIndex,
		in.CandidateLevel,
		strings.Join(in.Transcript, "\n"),
	)
}
