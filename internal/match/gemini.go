package match

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	_ "embed"

	"go.uber.org/zap"

	"jobpilot/internal/ai"
	"jobpilot/internal/resume"
	"jobpilot/internal/util"
)

//go:embed prompt.md
var promptTemplate string

const (
	// maxDescriptionChars bounds the posting excerpt submitted to the model.
	maxDescriptionChars = 2000

	defaultTimeout = 20 * time.Second
	maxLogLength   = 200
)

// GeminiScorer asks the configured model for a score and degrades to the
// fallback scorer when the call fails or returns garbage. The model output is
// untrusted; a parse failure is never surfaced to the caller.
type GeminiScorer struct {
	generator ai.Generator
	fallback  Scorer
	logger    *zap.Logger
	timeout   time.Duration
}

func NewGeminiScorer(generator ai.Generator, fallback Scorer, logger *zap.Logger) *GeminiScorer {
	if fallback == nil {
		fallback = KeywordPresenceScorer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiScorer{
		generator: generator,
		fallback:  fallback,
		logger:    logger,
		timeout:   defaultTimeout,
	}
}

func (s *GeminiScorer) Score(ctx context.Context, profile *resume.ProfileContent, posting Posting) (*Result, error) {
	matched := overlap(profile.Keywords, posting)

	if s.generator == nil {
		return s.scoreFallback(ctx, profile, posting, fmt.Errorf("no generator configured"))
	}

	result, err := s.scoreWithAI(ctx, profile, posting)
	if err != nil {
		s.logger.Warn("AI scoring failed, using keyword fallback",
			zap.String("posting_title", posting.Title),
			zap.Error(err),
		)
		return s.scoreFallback(ctx, profile, posting, err)
	}

	result.MatchedKeywords = matched
	return result, nil
}

func (s *GeminiScorer) scoreFallback(ctx context.Context, profile *resume.ProfileContent, posting Posting, cause error) (*Result, error) {
	result, err := s.fallback.Score(ctx, profile, posting)
	if err != nil {
		return nil, err
	}
	result.Rationale = fmt.Sprintf("%s (AI offline: %v)", result.Rationale, cause)
	return result, nil
}

func (s *GeminiScorer) scoreWithAI(ctx context.Context, profile *resume.ProfileContent, posting Posting) (*Result, error) {
	description := util.Truncate(posting.Description, maxDescriptionChars)

	prompt := strings.NewReplacer(
		"{{SKILLS}}", strings.Join(profile.Keywords, ", "),
		"{{EXPERIENCE}}", profile.TotalExperience,
		"{{TITLE}}", posting.Title,
		"{{DESCRIPTION}}", description,
	).Replace(promptTemplate)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate score: %w", err)
	}

	s.logger.Debug("AI scoring response",
		zap.String("model", s.generator.Model()),
		zap.String("response_preview", util.TruncateForLog(raw, maxLogLength)),
	)

	var data map[string]any
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse score response: %w", err)
	}

	score := ai.CoerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("score response missing numeric score")
	}

	reasoning := ai.CoerceString(data["reasoning"])
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}

	return &Result{
		Score:     clampScore(score),
		Rationale: fmt.Sprintf("AI match (%s): %s", s.generator.Model(), reasoning),
	}, nil
}

func clampScore(f float64) int {
	score := int(math.Round(f))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
