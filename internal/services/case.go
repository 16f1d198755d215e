package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/simcase-api/internal/cache"
	"github.com/Conceptual-Machines/simcase-api/internal/docschema"
	"github.com/Conceptual-Machines/simcase-api/internal/generation"
	"github.com/Conceptual-Machines/simcase-api/internal/logger"
	"github.com/Conceptual-Machines/simcase-api/internal/metrics"
	"github.com/Conceptual-Machines/simcase-api/internal/models"
	"github.com/Conceptual-Machines/simcase-api/internal/observability"
	"github.com/Conceptual-Machines/simcase-api/internal/prompt"
	"github.com/Conceptual-Machines/simcase-api/internal/ranges"
	"github.com/Conceptual-Machines/simcase-api/internal/structuring"
)

const cacheNamespace = "generation"

// Generator produces scenario text. *generation.Client implements it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// CaseRequest is the input of a full case build
type CaseRequest struct {
	Title      string                    `json:"title"`
	Questions  []models.Question         `json:"questions"`
	Selections models.ParameterSelection `json:"selections"`
	Objectives []string                  `json:"objectives"`
	TestMode   bool                      `json:"test_mode"`
}

// CaseServiceDeps wires the service. Only Generator is required.
type CaseServiceDeps struct {
	Generator  Generator
	Cache      cache.Cache
	CacheTTL   time.Duration
	Sentry     *metrics.SentryMetrics
	CloudWatch *metrics.Client
	Langfuse   *observability.LangfuseClient
}

// CaseService runs the questionnaire to structured document pipeline
type CaseService struct {
	generator  Generator
	prompts    *prompt.Builder
	cache      cache.Cache
	cacheTTL   time.Duration
	sentry     *metrics.SentryMetrics
	cloudwatch *metrics.Client
	langfuse   *observability.LangfuseClient
}

func NewCaseService(deps CaseServiceDeps) *CaseService {
	s := &CaseService{
		generator:  deps.Generator,
		prompts:    prompt.NewPromptBuilder(),
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		sentry:     deps.Sentry,
		cloudwatch: deps.CloudWatch,
		langfuse:   deps.Langfuse,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.langfuse == nil {
		s.langfuse = observability.GetClient()
	}
	return s
}

// BuildCase maps the selections, generates a scenario and structures it.
// Transient generation failures yield a degraded document built locally
// from the case parameters; permanent failures are returned.
func (s *CaseService) BuildCase(ctx context.Context, req CaseRequest) (*models.CaseResult, error) {
	transaction := sentry.StartTransaction(ctx, "case.build")
	defer transaction.Finish()
	ctx = transaction.Context()

	params := ranges.MapSelections(req.Questions, req.Selections, req.Objectives)

	systemPrompt, err := s.prompts.BuildSystemPrompt()
	if err != nil {
		return nil, err
	}
	genReq := generation.Request{
		Title:        req.Title,
		Prompt:       s.prompts.BuildCasePrompt(req.Title, params),
		SystemPrompt: systemPrompt,
		TestMode:     req.TestMode,
	}

	trace := s.langfuse.StartTrace(ctx, "case.build", map[string]interface{}{
		"title":     req.Title,
		"severity":  params.Complexity.Severity,
		"setting":   params.ClinicalContext.Setting,
		"test_mode": req.TestMode,
	})
	defer trace.Finish()
	ctx = observability.ContextWithTrace(ctx, trace)

	result := &models.CaseResult{Parameters: params}

	gen, cached, err := s.Generate(ctx, genReq)
	switch {
	case err == nil:
		result.Document = s.structure(ctx, gen.Text, req.Title)
		result.Provider = gen.Provider
		result.Model = gen.Model
		result.Attempts = gen.Attempts
		result.Cached = cached
	case generation.IsDegradable(err):
		reason := degradeReason(err)
		logger.Warn("Generation unavailable, returning degraded case", logger.Fields{
			"reason": reason,
			"error":  err.Error(),
		})
		s.recordDegraded(ctx, reason)
		transaction.SetTag("degraded", "true")

		result.Document = structuring.FallbackDocument(req.Title, params)
		result.Degraded = true
		var genErr *generation.Error
		if errors.As(err, &genErr) {
			result.Attempts = genErr.Attempts
		}
	default:
		return nil, err
	}

	if err := docschema.Validate(result.Document); err != nil {
		return nil, fmt.Errorf("structured document failed validation: %w", err)
	}
	digest, err := docschema.Digest(result.Document)
	if err != nil {
		return nil, err
	}
	result.Digest = digest
	return result, nil
}

// StructureDocument routes raw text and fingerprints the result
func (s *CaseService) StructureDocument(ctx context.Context, rawText, title string) (models.StructuredDocument, string, error) {
	doc := s.structure(ctx, rawText, title)
	if err := docschema.Validate(doc); err != nil {
		return doc, "", fmt.Errorf("structured document failed validation: %w", err)
	}
	digest, err := docschema.Digest(doc)
	if err != nil {
		return doc, "", err
	}
	return doc, digest, nil
}

func (s *CaseService) structure(ctx context.Context, rawText, title string) models.StructuredDocument {
	span := sentry.StartSpan(ctx, "structuring.route")
	defer span.Finish()

	start := time.Now()
	doc := structuring.Route(rawText, title)
	span.SetData("sections", doc.SectionCount())
	span.SetData("vital_signs", len(doc.Findings.VitalSigns))
	span.SetData("lab_results", len(doc.Findings.LabResults))

	if s.sentry != nil {
		s.sentry.RecordPerformanceMetric(ctx, "structuring.route", time.Since(start), map[string]interface{}{
			"sections": doc.SectionCount(),
		})
	}
	return doc
}

type cachedGeneration struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// cacheKeyInput holds the request fields that determine the output
type cacheKeyInput struct {
	Prompt          string  `json:"prompt"`
	SystemPrompt    string  `json:"system_prompt"`
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// Generate runs a generation through the cache. Test-mode requests bypass
// the cache. Cache failures are logged and never fail the request.
func (s *CaseService) Generate(ctx context.Context, req generation.Request) (*generation.Result, bool, error) {
	if req.TestMode {
		result, err := s.generator.Generate(ctx, req)
		return result, false, err
	}

	key, err := cache.Key(cacheNamespace, cacheKeyInput{
		Prompt:          req.Prompt,
		SystemPrompt:    req.SystemPrompt,
		Model:           req.Model,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	})
	if err != nil {
		return nil, false, err
	}

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		logger.Warn("Generation cache read failed", logger.Fields{"error": err.Error()})
	} else if ok {
		var hit cachedGeneration
		if err := json.Unmarshal(raw, &hit); err == nil && hit.Text != "" {
			logger.Debug("Generation cache hit", logger.Fields{"provider": hit.Provider})
			return &generation.Result{
				Text:      hit.Text,
				Provider:  hit.Provider,
				Model:     hit.Model,
				Timestamp: time.Now(),
			}, true, nil
		}
	}

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, false, err
	}

	if result.Provider != generation.SyntheticProvider {
		raw, _ := json.Marshal(cachedGeneration{Text: result.Text, Provider: result.Provider, Model: result.Model})
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			logger.Warn("Generation cache write failed", logger.Fields{"error": err.Error()})
		}
	}
	return result, false, nil
}

func (s *CaseService) recordDegraded(ctx context.Context, reason string) {
	logger.LogToSentry(sentry.LevelWarning, "Degraded case returned", logger.Fields{"reason": reason})
	if s.sentry != nil {
		s.sentry.RecordDegradedCase(ctx, reason)
	}
	if s.cloudwatch.Enabled() {
		s.cloudwatch.RecordDegradedCase(reason)
	}
}

func degradeReason(err error) string {
	var genErr *generation.Error
	if errors.As(err, &genErr) {
		return string(genErr.Kind)
	}
	return "unknown"
}
