package generator

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/mcncl/gozod/internal/analyzer"
	"github.com/mcncl/gozod/internal/config"
	"github.com/mcncl/gozod/internal/models"
	"github.com/mcncl/gozod/internal/nullable"
	"github.com/mcncl/gozod/internal/parser"
)

// Service runs the parse, analyze and render pipeline for one configuration.
// Each call builds its own analyzer and nullable policy, so a Service may be
// shared between goroutines.
type Service struct {
	config *config.Config
	// seed supplies the nullable seed when none is configured
	seed func() uint64
}

// NewService creates a Service for cfg; nil means the defaults.
func NewService(cfg *config.Config) *Service {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Service{
		config: cfg,
		seed:   clockSeed,
	}
}

func clockSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Generate converts jsonText into zod schema source using cfg (defaults when nil).
func Generate(jsonText string, cfg *config.Config) (string, error) {
	return NewService(cfg).Generate(context.Background(), jsonText)
}

// Generate converts jsonText into zod schema source. A parse failure is
// returned as-is and no partial output is produced.
func (s *Service) Generate(ctx context.Context, jsonText string) (string, error) {
	log := clog.FromContext(ctx)
	start := time.Now()

	ir, err := parser.ParseStringWithOptions(jsonText, parser.Options{Repair: s.config.Input.Repair})
	if err != nil {
		return "", err
	}
	if ir.Repaired {
		log.Warn("Input was not valid JSON, generated schema from the repaired document")
	}

	result, err := s.Analyze(ctx, ir)
	if err != nil {
		return "", err
	}

	out, err := NewGeneratorWithConfig(s.config).GenerateSchema(result)
	if err != nil {
		return "", err
	}

	log.With(
		"declarations", len(result.Names),
		"layout", string(s.config.Generation.Layout),
		"elapsed", time.Since(start),
	).Debug("Generated schema")
	return out, nil
}

// Analyze builds the declaration tree for ir with a fresh nullable policy.
func (s *Service) Analyze(ctx context.Context, ir models.IntermediateRepresentation) (models.AnalysisResult, error) {
	policy := s.config.NullablePolicy(s.seed())
	if random, ok := policy.(*nullable.Random); ok {
		clog.FromContext(ctx).Debugf("Nullable fields drawn with seed %d", random.Seed())
	}

	return analyzer.NewAnalyzerWithConfig(s.config).Analyze(ir, s.config.DeclarationRoot(), policy)
}
