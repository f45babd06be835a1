package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"jobpilot/internal/ai"
	"jobpilot/internal/util"
)

//go:embed prompt.md
var promptTemplate string

const (
	// maxPromptChars bounds the resume excerpt submitted to the model.
	maxPromptChars = 10000

	defaultTimeout = 30 * time.Second
	maxLogLength   = 200
)

// Extractor turns raw document bytes into a structured ProfileContent,
// preferring the AI path when a generator is configured and always able to
// fall back to the deterministic extractor.
type Extractor struct {
	generator ai.Generator
	logger    *zap.Logger
	timeout   time.Duration
}

func NewExtractor(generator ai.Generator, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		generator: generator,
		logger:    logger,
		timeout:   defaultTimeout,
	}
}

// Extract decodes the document and produces its structured content. It fails
// only on an unreadable or unsupported document; AI problems degrade to the
// fallback path.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (*ProfileContent, error) {
	rawText, err := ExtractText(data, mimeType)
	if err != nil {
		return nil, err
	}

	if e.generator != nil {
		content, err := e.extractWithAI(ctx, rawText)
		if err == nil {
			return content, nil
		}
		e.logger.Warn("AI extraction failed, falling back to deterministic extractor",
			zap.Error(err),
		)
	}

	return fallbackExtract(rawText), nil
}

// aiExtraction mirrors the JSON structure the model is instructed to return.
type aiExtraction struct {
	Contact         Contact           `mapstructure:"contact"`
	Skills          []string          `mapstructure:"skills"`
	Experience      []ExperienceEntry `mapstructure:"experience"`
	TotalExperience string            `mapstructure:"totalExperience"`
	Keywords        []string          `mapstructure:"keywords"`
}

func (e *Extractor) extractWithAI(ctx context.Context, rawText string) (*ProfileContent, error) {
	excerpt := util.Truncate(rawText, maxPromptChars)

	prompt := strings.ReplaceAll(promptTemplate, "{{RESUME_TEXT}}", excerpt)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate extraction: %w", err)
	}

	e.logger.Debug("AI extraction response",
		zap.String("model", e.generator.Model()),
		zap.String("response_preview", util.TruncateForLog(raw, maxLogLength)),
	)

	var loose map[string]any
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &loose); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	// The model output is untrusted: decode weakly so stray numbers or single
	// values in place of lists do not fail the whole extraction.
	var extracted aiExtraction
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &extracted,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build extraction decoder: %w", err)
	}
	if err := decoder.Decode(loose); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	keywords := dedupeKeywords(append(append([]string{}, extracted.Keywords...), extracted.Skills...), maxKeywords)

	content := &ProfileContent{
		Contact:         extracted.Contact,
		Skills:          keywords,
		Keywords:        keywords,
		Experience:      extracted.Experience,
		TotalExperience: extracted.TotalExperience,
		RawText:         rawText,
	}
	if strings.TrimSpace(content.TotalExperience) == "" {
		content.TotalExperience = "Unknown"
	}
	content.normalize()
	return content, nil
}
