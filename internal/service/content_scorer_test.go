package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubGenerator struct {
	reply string
	err   error

	prompts []string
}

func (s *stubGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestScoreTurnParsesEmbeddedJSON(t *testing.T) {
	gen := &stubGenerator{reply: "Sure, here is my assessment:\n```json\n{\"score\": 8, \"question\": \"Tell me about Go channels.\"}\n```"}
	scorer := NewContentScorer(gen, zap.NewNop())

	turn := scorer.ScoreTurn(context.Background(), "prompt")

	if turn.Degraded {
		t.Fatalf("unexpected degraded result: %+v", turn)
	}
	if turn.Score != 8 {
		t.Errorf("score = %v, want 8", turn.Score)
	}
	if turn.Question != "Tell me about Go channels." {
		t.Errorf("question = %q", turn.Question)
	}
}

func TestScoreTurnNonJSONReply(t *testing.T) {
	gen := &stubGenerator{reply: "I cannot answer that in the requested format."}
	scorer := NewContentScorer(gen, zap.NewNop())

	turn := scorer.ScoreTurn(context.Background(), "prompt")

	if !turn.Degraded {
		t.Fatal("expected degraded result")
	}
	if turn.Score != FallbackTurnScore {
		t.Errorf("score = %v, want %v", turn.Score, FallbackTurnScore)
	}
	if turn.Question != FallbackTurnReply {
		t.Errorf("question = %q, want %q", turn.Question, FallbackTurnReply)
	}
}

func TestScoreTurnGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	scorer := NewContentScorer(gen, zap.NewNop())

	turn := scorer.ScoreTurn(context.Background(), "prompt")

	if !turn.Degraded {
		t.Fatal("expected degraded result")
	}
	if turn.Score != FallbackTurnScore || turn.Question != FallbackTurnReply {
		t.Fatalf("unexpected fallback values: %+v", turn)
	}
}

func TestScoreTurnPartialJSONKeepsFallbacks(t *testing.T) {
	// 只有 question，score 缺失：问题采纳，分数保底
	gen := &stubGenerator{reply: `{"question": "What is a goroutine?"}`}
	scorer := NewContentScorer(gen, zap.NewNop())

	turn := scorer.ScoreTurn(context.Background(), "prompt")

	if turn.Degraded {
		t.Fatal("partial JSON should not be degraded")
	}
	if turn.Score != FallbackTurnScore {
		t.Errorf("score = %v, want fallback %v", turn.Score, FallbackTurnScore)
	}
	if turn.Question != "What is a goroutine?" {
		t.Errorf("question = %q", turn.Question)
	}
}

func TestScoreTurnCoercesStringScore(t *testing.T) {
	gen := &stubGenerator{reply: `{"score": "7", "question": "Next?"}`}
	scorer := NewContentScorer(gen, zap.NewNop())

	turn := scorer.ScoreTurn(context.Background(), "prompt")

	if turn.Score != 7 {
		t.Errorf("score = %v, want 7", turn.Score)
	}
}

func TestScoreTurnMalformedJSON(t *testing.T) {
	gen := &stubGenerator{reply: `{"score": 8, "question": `}
	scorer := NewContentScorer(gen, zap.NewNop())

	turn := scorer.ScoreTurn(context.Background(), "prompt")

	if !turn.Degraded {
		t.Fatal("expected degraded result")
	}
}

func TestGenerateReportPassesTextThrough(t *testing.T) {
	gen := &stubGenerator{reply: "Summary: strong candidate."}
	scorer := NewContentScorer(gen, zap.NewNop())

	report := scorer.GenerateReport(context.Background(), "prompt")

	if report.Degraded {
		t.Fatal("unexpected degraded report")
	}
	if report.Text != "Summary: strong candidate." {
		t.Errorf("text = %q", report.Text)
	}
}

func TestGenerateReportFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model offline")}
	scorer := NewContentScorer(gen, zap.NewNop())

	report := scorer.GenerateReport(context.Background(), "prompt")

	if !report.Degraded {
		t.Fatal("expected degraded report")
	}
	if report.Text != FallbackReportText {
		t.Errorf("text = %q, want %q", report.Text, FallbackReportText)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"wrapped", "prefix {\"a\":1} suffix", `{"a":1}`, true},
		{"nested", `{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"none", "no braces here", "", false},
		{"reversed", "} {", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONObject(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("extractJSONObject(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}
