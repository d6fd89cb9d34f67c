// Package order sequences the order planning pipeline: constraint
// extraction, restaurant search, candidate selection and assembly.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/metrics"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/observability"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers"
)

const (
	DefaultCandidateLimit = 5
	DefaultETAMinutes     = 25
	DefaultRecordTimeout  = 2 * time.Second

	unknownRestaurant = "Unknown restaurant"
	unknownAddress    = "Address unavailable"
)

// Request outcome labels for order_requests_total.
const (
	statusOK        = "ok"
	statusInvalid   = "invalid"
	statusNoResults = "no_results"
	statusError     = "error"
)

type ConstraintExtractor interface {
	Extract(ctx context.Context, prompt string) (*models.Constraints, error)
}

type CandidateSelector interface {
	Select(ctx context.Context, prompt string, candidates []models.Candidate) (*models.Selection, error)
}

// PlanRecorder receives every successful plan. Failures are logged and never
// change the response.
type PlanRecorder interface {
	Name() string
	Record(ctx context.Context, req models.OrderRequest, result *models.OrderResult) error
}

// ErrorReporter receives every failure that is hidden behind the generic
// internal error.
type ErrorReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

type Config struct {
	CandidateLimit int
	ETAMinutes     int
	// RecordTimeout bounds each recorder call.
	RecordTimeout time.Duration
}

type Planner struct {
	config    *Config
	extractor ConstraintExtractor
	provider  providers.RestaurantProvider
	selector  CandidateSelector
	recorders []PlanRecorder
	reporter  ErrorReporter
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

type Option func(*Planner)

// WithRecorders registers sinks for successful plans.
func WithRecorders(recorders ...PlanRecorder) Option {
	return func(p *Planner) {
		p.recorders = append(p.recorders, recorders...)
	}
}

func WithErrorReporter(r ErrorReporter) Option {
	return func(p *Planner) {
		p.reporter = r
	}
}

func WithObservability(obs *observability.Observability) Option {
	return func(p *Planner) {
		p.obs = obs
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

func NewPlanner(
	config *Config,
	extractor ConstraintExtractor,
	provider providers.RestaurantProvider,
	selector CandidateSelector,
	log logger.Logger,
	opts ...Option,
) *Planner {
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = DefaultCandidateLimit
	}
	if config.ETAMinutes <= 0 {
		config.ETAMinutes = DefaultETAMinutes
	}
	if config.RecordTimeout <= 0 {
		config.RecordTimeout = DefaultRecordTimeout
	}

	p := &Planner{
		config:    config,
		extractor: extractor,
		provider:  provider,
		selector:  selector,
		obs:       observability.NewNoop(),
		logger:    log.With(map[string]interface{}{"component": "order-planner"}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan runs the pipeline for one request. Returned errors are always
// *errors.StandardError; only validation and empty-search errors carry a
// message meant for the caller, everything else is the generic internal error.
func (p *Planner) Plan(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error) {
	start := time.Now()
	metrics.OrdersInFlight.Inc()
	defer metrics.OrdersInFlight.Dec()

	result, status, err := p.plan(ctx, req)

	metrics.OrderRequests.WithLabelValues(status).Inc()
	p.obs.RecordOrderProcessed(ctx, status)
	p.obs.RecordOrderDuration(ctx, time.Since(start), status)

	if err != nil {
		return nil, err
	}

	p.record(ctx, req, result)
	return result, nil
}

func (p *Planner) plan(ctx context.Context, req models.OrderRequest) (result *models.OrderResult, status string, err error) {
	if !req.HasLocation() {
		return nil, statusInvalid, apperrors.NewLocationRequiredError()
	}

	ctx, span := p.obs.StartSpan(ctx, "order.plan", attribute.String("platform", p.provider.Platform()))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			status = statusError
			err = p.internalError(ctx, fmt.Errorf("panic: %v", r), "recover")
			span.SetStatus(codes.Error, "panic")
		}
	}()

	result, err = p.run(ctx, req)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeNoResults) {
			return nil, statusNoResults, err
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, statusError, p.internalError(ctx, err, "pipeline")
	}

	return result, statusOK, nil
}

func (p *Planner) run(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error) {
	location := strings.TrimSpace(*req.Location)

	constraints, err := p.extract(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	query := models.SearchQuery{
		Term:          SearchTerm(constraints),
		Location:      location,
		MaxPriceLevel: PriceTier(constraints.MaxPrice),
		Limit:         p.config.CandidateLimit,
	}

	candidates, err := p.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperrors.NewNoResultsError(query.Term, query.Location)
	}

	selection, err := p.selectCandidate(ctx, req.Prompt, candidates)
	if err != nil {
		return nil, err
	}

	idx := ClampIndex(selection, len(candidates))
	if idx != selection.ChosenIndex || !selection.ValidIndex {
		p.logger.Warn("selection index clamped", map[string]interface{}{
			"chosenIndex": selection.ChosenIndex,
			"validIndex":  selection.ValidIndex,
			"candidates":  len(candidates),
		})
	}

	return p.assemble(candidates[idx], selection, constraints), nil
}

func (p *Planner) extract(ctx context.Context, prompt string) (*models.Constraints, error) {
	ctx, span := p.obs.StartSpan(ctx, "order.extract_constraints")
	defer span.End()
	defer observeStep(metrics.StepExtractConstraints, time.Now())

	constraints, err := p.extractor.Extract(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract constraints: %w", err)
	}
	if constraints == nil {
		return nil, fmt.Errorf("extract constraints: no result")
	}
	return constraints, nil
}

func (p *Planner) search(ctx context.Context, q models.SearchQuery) ([]models.Candidate, error) {
	platform := p.provider.Platform()
	ctx, span := p.obs.StartSpan(ctx, "order.search",
		attribute.String("term", q.Term),
		attribute.Int("max_price_level", q.MaxPriceLevel),
	)
	defer span.End()
	defer observeStep(metrics.StepSearch, time.Now())

	candidates, err := p.provider.Search(ctx, q)
	if err != nil {
		metrics.ProviderSearches.WithLabelValues(platform, "error").Inc()
		return nil, fmt.Errorf("search %s: %w", platform, err)
	}

	outcome := "ok"
	if len(candidates) == 0 {
		outcome = "empty"
	}
	metrics.ProviderSearches.WithLabelValues(platform, outcome).Inc()
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	if len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}
	return candidates, nil
}

func (p *Planner) selectCandidate(ctx context.Context, prompt string, candidates []models.Candidate) (*models.Selection, error) {
	ctx, span := p.obs.StartSpan(ctx, "order.select_candidate")
	defer span.End()
	defer observeStep(metrics.StepSelectCandidate, time.Now())

	selection, err := p.selector.Select(ctx, prompt, candidates)
	if err != nil {
		return nil, fmt.Errorf("select candidate: %w", err)
	}
	if selection == nil {
		return nil, fmt.Errorf("select candidate: no result")
	}
	return selection, nil
}

func (p *Planner) assemble(chosen models.Candidate, selection *models.Selection, constraints *models.Constraints) *models.OrderResult {
	name := chosen.Name
	if name == "" {
		name = unknownRestaurant
	}
	address := chosen.Address
	if address == "" {
		address = unknownAddress
	}

	return &models.OrderResult{
		PlanID:            uuid.New().String(),
		Platform:          p.provider.Platform(),
		RestaurantName:    name,
		ItemName:          selection.ItemName,
		DrinkName:         selection.ItemName,
		TotalPrice:        TotalPrice(selection.EstimatedTotalPrice, constraints.MaxPrice),
		ETAMinutes:        p.config.ETAMinutes,
		RestaurantAddress: address,
		CheckoutURL:       chosen.URL,
		Timestamp:         p.now().Unix(),
	}
}

func (p *Planner) record(ctx context.Context, req models.OrderRequest, result *models.OrderResult) {
	for _, r := range p.recorders {
		if err := p.recordOne(ctx, r, req, result); err != nil {
			p.logger.Warn("plan recorder failed", map[string]interface{}{
				"recorder": r.Name(),
				"planId":   result.PlanID,
				"error":    err,
			})
		}
	}
}

func (p *Planner) recordOne(ctx context.Context, r PlanRecorder, req models.OrderRequest, result *models.OrderResult) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.RecordTimeout)
	defer cancel()
	return r.Record(ctx, req, result)
}

// internalError logs the underlying failure once and hides it from the caller.
func (p *Planner) internalError(ctx context.Context, err error, stage string) *apperrors.StandardError {
	fields := map[string]interface{}{
		"stage": stage,
		"error": err,
	}
	tags := map[string]string{
		"stage":    stage,
		"platform": p.provider.Platform(),
	}
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		fields["code"] = stdErr.Code
		fields["category"] = apperrors.GetErrorCategory(stdErr.Code)
		fields["retryable"] = stdErr.Retryable
		tags["code"] = string(stdErr.Code)
		tags["category"] = apperrors.GetErrorCategory(stdErr.Code)
	}
	p.logger.Error("order planning failed", fields)
	if p.reporter != nil {
		p.reporter.Report(ctx, err, tags)
	}
	return apperrors.NewInternalError(err).
		WithMetadata("stage", stage).
		WithMetadata("platform", p.provider.Platform())
}

func observeStep(step string, start time.Time) {
	metrics.OrderStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}
