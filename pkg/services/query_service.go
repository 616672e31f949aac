// Package services orchestrates the question-to-SQL pipeline: term
// normalization, temporal extraction, prompt assembly, synthesis with
// retry and circuit breaking, repair, and field validation.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/idss-ai/text2sql-engine/pkg/apperrors"
	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
	"github.com/idss-ai/text2sql-engine/pkg/llm"
	"github.com/idss-ai/text2sql-engine/pkg/logging"
	"github.com/idss-ai/text2sql-engine/pkg/normalizer"
	"github.com/idss-ai/text2sql-engine/pkg/prompts"
	"github.com/idss-ai/text2sql-engine/pkg/retry"
	enginesql "github.com/idss-ai/text2sql-engine/pkg/sql"
)

// QueryService turns a natural language question into a single SQL
// statement plus diagnostics.
type QueryService interface {
	GenerateSQL(ctx context.Context, question string) (*GenerateResult, error)
	ValidateSQLFields(sqlText string) (enginesql.ValidationResult, error)
}

// GenerateResult is the outcome of one generation request.
type GenerateResult struct {
	RequestID      uuid.UUID                  `json:"request_id"`
	Question       string                     `json:"question"`
	SQL            string                     `json:"sql"`
	Conditions     []string                   `json:"conditions,omitempty"`
	AppliedRepairs []string                   `json:"applied_repairs,omitempty"`
	Diagnostics    []string                   `json:"diagnostics,omitempty"`
	Validation     enginesql.ValidationResult `json:"validation"`
	Model          string                     `json:"model"`
}

// GenerateOptions tunes the synthesis call.
type GenerateOptions struct {
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// DefaultGenerateOptions returns the settings used when none are provided.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Temperature: 0.1,
		Timeout:     60 * time.Second,
		MaxRetries:  2,
	}
}

type queryService struct {
	store     *knowledge.Store
	synth     llm.Synthesizer
	breaker   *llm.CircuitBreaker
	validator *enginesql.FieldValidator
	opts      GenerateOptions
	logger    *zap.Logger
}

// NewQueryService creates a new query service with dependencies.
func NewQueryService(
	store *knowledge.Store,
	synth llm.Synthesizer,
	validator *enginesql.FieldValidator,
	opts GenerateOptions,
	logger *zap.Logger,
) QueryService {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGenerateOptions().Timeout
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultGenerateOptions().Temperature
	}
	return &queryService{
		store:     store,
		synth:     synth,
		breaker:   llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig()),
		validator: validator,
		opts:      opts,
		logger:    logger.Named("query"),
	}
}

// GenerateSQL runs the full pipeline for one question.
func (s *queryService) GenerateSQL(ctx context.Context, question string) (*GenerateResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.ErrEmptyQuestion
	}

	requestID := uuid.New()
	log := s.logger.With(zap.String("request_id", requestID.String()))

	// Normalize business vocabulary, then derive product and temporal
	// conditions from the original question so rule erasures cannot hide
	// a keyword from detection.
	res := normalizer.Normalize(question, s.store.Rules())
	conds := res.Conditions
	if term, ok := s.store.DetectProduct(question); ok {
		conds = append(conds, normalizer.ProductConditions(term)...)
	}
	_, timeConds := normalizer.ExtractTime(question)
	conds = append(conds, timeConds...)
	conds = normalizer.Dedupe(conds)

	processed := normalizer.WithTrailer(res.Question, conds)
	log.Debug("question normalized",
		zap.String("processed", processed),
		zap.Int("conditions", len(conds)))

	prompt := prompts.BuildSQLGenerationPrompt(s.store, res.Question, conds)
	system := prompts.BuildSQLGenerationSystemMessage()

	if ok, err := s.breaker.Allow(); !ok {
		return nil, err
	}

	retryCfg := retry.DefaultConfig()
	if s.opts.MaxRetries > 0 {
		retryCfg.MaxRetries = s.opts.MaxRetries
	}
	completion, err := retry.DoWithResultIfRetryable(ctx, retryCfg, func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
		return s.synth.GenerateResponse(callCtx, prompt, system, s.opts.Temperature)
	})
	if err != nil {
		s.breaker.RecordFailure()
		log.Error("synthesis failed", zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("generate sql: %w", err)
	}
	s.breaker.RecordSuccess()

	raw, err := enginesql.ExtractFromCompletion(completion)
	if err != nil {
		log.Warn("completion carried no SQL", zap.Int("completion_len", len(completion)))
		return nil, fmt.Errorf("extract sql: %w", err)
	}
	stmt, err := enginesql.NormalizeStatement(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize sql: %w", err)
	}

	result := &GenerateResult{
		RequestID:  requestID,
		Question:   processed,
		Conditions: conditionFragments(conds),
		Model:      s.synth.GetModel(),
	}

	// Repair is best effort: a rule failure is reported, never fatal.
	scope := normalizer.ScopeFromConditions(conds)
	repaired, applied, err := enginesql.Repair(stmt, enginesql.RepairContext{
		FiscalYear:  scope.FiscalYear,
		FiscalMonth: scope.FiscalMonth,
		FiscalWeek:  scope.FiscalWeek,
	})
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, err.Error())
		log.Warn("repair incomplete", zap.Error(err))
	}
	result.SQL = repaired
	result.AppliedRepairs = applied

	// Field validation is advisory.
	result.Validation = s.validator.Validate(repaired)
	if !result.Validation.AllValid {
		result.Diagnostics = append(result.Diagnostics,
			fmt.Sprintf("unknown fields: %s", strings.Join(result.Validation.MissingFields, ", ")))
	}

	log.Info("sql generated",
		zap.Int("sql_len", len(result.SQL)),
		zap.Strings("applied_repairs", applied),
		zap.Bool("all_fields_valid", result.Validation.AllValid))

	return result, nil
}

// ValidateSQLFields checks the field references of an arbitrary statement
// against the knowledge store.
func (s *queryService) ValidateSQLFields(sqlText string) (enginesql.ValidationResult, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return enginesql.ValidationResult{}, apperrors.ErrEmptySQL
	}
	return s.validator.Validate(sqlText), nil
}

func conditionFragments(conds []normalizer.Condition) []string {
	out := make([]string, 0, len(conds))
	for _, c := range conds {
		out = append(out, c.Fragment)
	}
	return out
}
