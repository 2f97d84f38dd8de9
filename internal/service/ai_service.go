package service

import (
	"context"
	"fmt"
	"interview_trainer_backend/internal/config"
	"strings"

	"google.golang.org/genai"
)

// AIService 封装 Gemini 客户端，只暴露文本生成和模型列表两个能力。
type AIService struct {
	client *genai.Client
	model  string
}

func NewAIService(ctx context.Context, cfg config.GeminiConfig) (*AIService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &AIService{client: client, model: cfg.Model}, nil
}

// GenerateContent 发送单条提示词并拼接所有候选文本片段。
func (s *AIService) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", s.model)
	}
	return text, nil
}

// ModelInfo 诊断接口返回的模型条目
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// ListModels 列出当前 API Key 可用的模型，仅用于诊断。
func (s *AIService) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	for m, err := range s.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		models = append(models, ModelInfo{Name: m.Name, DisplayName: m.DisplayName})
	}
	return models, nil
}
