package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
	extractconstraints "github.com/SeanAminov/AutoShopper-AI-Sean/internal/steps/extract-constraints"
	selectcandidate "github.com/SeanAminov/AutoShopper-AI-Sean/internal/steps/select-candidate"
)

// ==========================
// Mocks
// ==========================

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, prompt string) (*models.Constraints, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Constraints), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Platform() string {
	return "Google Maps"
}

func (m *MockProvider) Search(ctx context.Context, q models.SearchQuery) ([]models.Candidate, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Candidate), args.Error(1)
}

type MockSelector struct {
	mock.Mock
}

func (m *MockSelector) Select(ctx context.Context, prompt string, candidates []models.Candidate) (*models.Selection, error) {
	args := m.Called(ctx, prompt, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Selection), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Name() string { return "mock" }

func (m *MockRecorder) Record(ctx context.Context, req models.OrderRequest, result *models.OrderResult) error {
	return m.Called(ctx, req, result).Error(0)
}

// scriptedCompleter answers the extraction and selection prompts with fixed
// model output, keyed on which system prompt was sent.
type scriptedCompleter struct {
	extraction string
	selection  string
}

func (c *scriptedCompleter) CompleteJSON(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if strings.Contains(systemPrompt, "extracts food-ordering constraints") {
		return c.extraction, nil
	}
	return c.selection, nil
}

// ==========================
// Helpers
// ==========================

var fixedNow = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func loc(v string) *string { return &v }

func threeCandidates() []models.Candidate {
	return []models.Candidate{
		{ID: "p0", Name: "Wing Stop", Rating: 4.0, PriceLevel: 1, Address: "100 Santa Clara St, San Jose", URL: "https://www.google.com/maps/place/?q=place_id:p0"},
		{ID: "p1", Name: "Nashville Hot", Rating: 4.7, PriceLevel: 2, Address: "200 First St, San Jose", URL: "https://www.google.com/maps/place/?q=place_id:p1"},
		{ID: "p2", Name: "Clucker's", Rating: 4.3, PriceLevel: 2, Address: "300 Second St, San Jose", URL: "https://www.google.com/maps/place/?q=place_id:p2"},
	}
}

func newTestPlanner(t *testing.T, extractor ConstraintExtractor, provider *MockProvider, selector CandidateSelector, opts ...Option) *Planner {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewPlanner(&Config{}, extractor, provider, selector, logger.NewTestLogger(t), opts...)
}

func newPipelinePlanner(t *testing.T, llm *scriptedCompleter, provider *MockProvider) *Planner {
	log := logger.NewTestLogger(t)
	return newTestPlanner(t,
		extractconstraints.NewExtractor(llm, log),
		provider,
		selectcandidate.NewSelector(llm, log),
	)
}

// ==========================
// End-to-end pipeline
// ==========================

func TestPlanner_Plan_SelectorEstimateWins(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, models.SearchQuery{
		Term: "chicken", Location: "San Jose, CA", MaxPriceLevel: 2, Limit: 5,
	}).Return(threeCandidates(), nil)

	llm := &scriptedCompleter{
		extraction: `{"cuisine":"chicken","max_price":15,"max_distance_km":null,"spice_level":"spicy","dietary":[]}`,
		selection:  `{"chosen_index":1,"item_name":"Hot Chicken Sandwich","estimated_total_price":13.75}`,
	}

	result, err := newPipelinePlanner(t, llm, provider).Plan(context.Background(), models.OrderRequest{
		Prompt: "spicy chicken, under $15", Location: loc("San Jose, CA"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Google Maps", result.Platform)
	assert.Equal(t, "Nashville Hot", result.RestaurantName)
	assert.Equal(t, "Hot Chicken Sandwich", result.ItemName)
	assert.Equal(t, "Hot Chicken Sandwich", result.DrinkName)
	assert.Equal(t, 13.75, result.TotalPrice)
	assert.Equal(t, 25, result.ETAMinutes)
	assert.Equal(t, "200 First St, San Jose", result.RestaurantAddress)
	assert.Equal(t, "https://www.google.com/maps/place/?q=place_id:p1", result.CheckoutURL)
	assert.Equal(t, fixedNow.Unix(), result.Timestamp)
	assert.NotEmpty(t, result.PlanID)
	provider.AssertExpectations(t)
}

func TestPlanner_Plan_FallsBackToStatedBudget(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, mock.Anything).Return(threeCandidates(), nil)

	llm := &scriptedCompleter{
		extraction: `{"cuisine":"pho","max_price":12,"dietary":[]}`,
		selection:  `{"chosen_index":2,"item_name":"Beef Pho","estimated_total_price":null}`,
	}

	result, err := newPipelinePlanner(t, llm, provider).Plan(context.Background(), models.OrderRequest{
		Prompt: "pho for about 12 bucks", Location: loc("San Jose, CA"),
	})

	require.NoError(t, err)
	assert.Equal(t, 12.0, result.TotalPrice)
	assert.Equal(t, "Clucker's", result.RestaurantName)
}

func TestPlanner_Plan_NoEstimateNoBudget(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, models.SearchQuery{
		Term: "food", Location: "San Jose, CA", MaxPriceLevel: 0, Limit: 5,
	}).Return(threeCandidates(), nil)

	llm := &scriptedCompleter{
		extraction: `{"cuisine":null,"max_price":null,"dietary":[]}`,
		selection:  `{"chosen_index":0,"item_name":"Combo"}`,
	}

	result, err := newPipelinePlanner(t, llm, provider).Plan(context.Background(), models.OrderRequest{
		Prompt: "surprise me", Location: loc("San Jose, CA"),
	})

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.TotalPrice)
	provider.AssertExpectations(t)
}

func TestPlanner_Plan_MalformedModelOutputDegrades(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, models.SearchQuery{
		Term: "food", Location: "Oakland, CA", Limit: 5,
	}).Return(threeCandidates(), nil)

	llm := &scriptedCompleter{extraction: "not json", selection: "also not json"}

	result, err := newPipelinePlanner(t, llm, provider).Plan(context.Background(), models.OrderRequest{
		Prompt: "anything", Location: loc("Oakland, CA"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Wing Stop", result.RestaurantName)
	assert.Equal(t, "Recommended item", result.ItemName)
	assert.Equal(t, 0.0, result.TotalPrice)
}

func TestPlanner_Plan_OutOfRangeIndexClampsToFirst(t *testing.T) {
	for _, raw := range []string{
		`{"chosen_index":3,"item_name":"x"}`,
		`{"chosen_index":-2,"item_name":"x"}`,
		`{"chosen_index":1.5,"item_name":"x"}`,
		`{"chosen_index":"1","item_name":"x"}`,
	} {
		provider := new(MockProvider)
		provider.On("Search", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
		llm := &scriptedCompleter{extraction: `{}`, selection: raw}

		result, err := newPipelinePlanner(t, llm, provider).Plan(context.Background(), models.OrderRequest{
			Prompt: "wings", Location: loc("San Jose, CA"),
		})

		require.NoError(t, err, raw)
		assert.Equal(t, "Wing Stop", result.RestaurantName, raw)
	}
}

// ==========================
// Terminal errors
// ==========================

func TestPlanner_Plan_LocationRequired(t *testing.T) {
	for _, location := range []*string{nil, loc(""), loc("   ")} {
		extractor := new(MockExtractor)
		provider := new(MockProvider)
		selector := new(MockSelector)

		_, err := newTestPlanner(t, extractor, provider, selector).Plan(context.Background(), models.OrderRequest{
			Prompt: "tacos", Location: location,
		})

		require.Error(t, err)
		assert.Equal(t, "Location is required.", apperrors.UserMessage(err))
		extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
		provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	}
}

func TestPlanner_Plan_EmptyRequest(t *testing.T) {
	_, err := newTestPlanner(t, new(MockExtractor), new(MockProvider), new(MockSelector)).
		Plan(context.Background(), models.OrderRequest{})

	assert.Equal(t, "Location is required.", apperrors.UserMessage(err))
}

func TestPlanner_Plan_EmptyPromptIsPlanned(t *testing.T) {
	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, "").Return(&models.Constraints{Dietary: []string{}}, nil)
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, models.SearchQuery{
		Term: "food", Location: "Austin", Limit: 5,
	}).Return(threeCandidates(), nil)
	selector := new(MockSelector)
	selector.On("Select", mock.Anything, "", mock.Anything).
		Return(&models.Selection{ChosenIndex: 0, ValidIndex: true, ItemName: "Recommended item"}, nil)

	result, err := newTestPlanner(t, extractor, provider, selector).
		Plan(context.Background(), models.OrderRequest{Prompt: "", Location: loc("Austin")})

	require.NoError(t, err)
	assert.Equal(t, "Wing Stop", result.RestaurantName)
	extractor.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestPlanner_Plan_NoResults(t *testing.T) {
	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, "ramen").Return(&models.Constraints{Dietary: []string{}}, nil)
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, mock.Anything).Return([]models.Candidate{}, nil)
	selector := new(MockSelector)

	_, err := newTestPlanner(t, extractor, provider, selector).Plan(context.Background(), models.OrderRequest{
		Prompt: "ramen", Location: loc("Middle of Nowhere"),
	})

	require.Error(t, err)
	assert.Equal(t, "No restaurants found matching your request.", apperrors.UserMessage(err))
	selector.AssertNotCalled(t, "Select", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlanner_Plan_UpstreamFailuresAreInternal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *MockExtractor, p *MockProvider, s *MockSelector)
	}{
		{
			name: "extractor configuration error",
			setup: func(e *MockExtractor, p *MockProvider, s *MockSelector) {
				e.On("Extract", mock.Anything, mock.Anything).Return(nil, apperrors.NewConfigurationError("OPENAI_API_KEY not set"))
			},
		},
		{
			name: "provider failure",
			setup: func(e *MockExtractor, p *MockProvider, s *MockSelector) {
				e.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
				p.On("Search", mock.Anything, mock.Anything).Return(nil, apperrors.NewProviderRequestFailedError("Google Maps", errors.New("status 500")))
			},
		},
		{
			name: "selector timeout",
			setup: func(e *MockExtractor, p *MockProvider, s *MockSelector) {
				e.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
				p.On("Search", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
				s.On("Select", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.NewLLMTimeoutError(context.DeadlineExceeded))
			},
		},
		{
			name: "panic in provider",
			setup: func(e *MockExtractor, p *MockProvider, s *MockSelector) {
				e.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
				p.On("Search", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					panic("nil map write")
				}).Return(nil, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor, provider, selector := new(MockExtractor), new(MockProvider), new(MockSelector)
			tt.setup(extractor, provider, selector)

			result, err := newTestPlanner(t, extractor, provider, selector).Plan(context.Background(), models.OrderRequest{
				Prompt: "tacos", Location: loc("Austin"),
			})

			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternal))
			assert.Equal(t, "Internal error while planning order.", apperrors.UserMessage(err))
		})
	}
}

type capturingReporter struct {
	errs []error
	tags []map[string]string
}

func (c *capturingReporter) Report(ctx context.Context, err error, tags map[string]string) {
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}

func TestPlanner_Plan_InternalErrorsAreReported(t *testing.T) {
	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewProviderTimeoutError("Google Maps", context.DeadlineExceeded))

	reporter := &capturingReporter{}
	_, err := newTestPlanner(t, extractor, provider, new(MockSelector), WithErrorReporter(reporter)).
		Plan(context.Background(), models.OrderRequest{Prompt: "tacos", Location: loc("Austin")})

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "pipeline", stdErr.Metadata["stage"])
	assert.Equal(t, "Google Maps", stdErr.Metadata["platform"])

	require.Len(t, reporter.errs, 1)
	assert.True(t, apperrors.HasCode(reporter.errs[0], apperrors.ErrCodeProviderTimeout))
	assert.Equal(t, map[string]string{
		"stage":    "pipeline",
		"platform": "Google Maps",
		"code":     "PROVIDER_TIMEOUT",
		"category": "provider",
	}, reporter.tags[0])
}

func TestPlanner_Plan_NoResultsNotReported(t *testing.T) {
	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, mock.Anything).Return([]models.Candidate{}, nil)

	reporter := &capturingReporter{}
	_, err := newTestPlanner(t, extractor, provider, new(MockSelector), WithErrorReporter(reporter)).
		Plan(context.Background(), models.OrderRequest{Prompt: "tacos", Location: loc("Austin")})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNoResults))
	assert.Empty(t, reporter.errs)
}

// ==========================
// Recorders
// ==========================

func TestPlanner_Plan_RecordersReceivePlan(t *testing.T) {
	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
	selector := new(MockSelector)
	selector.On("Select", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Selection{ChosenIndex: 2, ValidIndex: true, ItemName: "Tenders"}, nil)

	ok := new(MockRecorder)
	ok.On("Record", mock.Anything, mock.Anything, mock.AnythingOfType("*models.OrderResult")).Return(nil)
	failing := new(MockRecorder)
	failing.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("topic not found"))

	result, err := newTestPlanner(t, extractor, provider, selector, WithRecorders(ok, failing)).
		Plan(context.Background(), models.OrderRequest{Prompt: "tenders", Location: loc("San Jose")})

	require.NoError(t, err)
	assert.Equal(t, "Clucker's", result.RestaurantName)
	ok.AssertNumberOfCalls(t, "Record", 1)
	failing.AssertNumberOfCalls(t, "Record", 1)
}

// blockingRecorder waits until its context ends.
type blockingRecorder struct {
	hadDeadline bool
}

func (b *blockingRecorder) Name() string { return "blocking" }

func (b *blockingRecorder) Record(ctx context.Context, req models.OrderRequest, result *models.OrderResult) error {
	_, b.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestPlanner_Plan_SlowRecorderIsBounded(t *testing.T) {
	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
	selector := new(MockSelector)
	selector.On("Select", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Selection{ChosenIndex: 0, ValidIndex: true, ItemName: "Wings"}, nil)

	slow := &blockingRecorder{}
	planner := NewPlanner(&Config{RecordTimeout: 50 * time.Millisecond},
		extractor, provider, selector, logger.NewTestLogger(t), WithRecorders(slow))

	start := time.Now()
	result, err := planner.Plan(context.WithoutCancel(context.Background()), models.OrderRequest{
		Prompt: "wings", Location: loc("San Jose"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Wing Stop", result.RestaurantName)
	assert.True(t, slow.hadDeadline)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPlanner_Plan_RecordersSkippedOnError(t *testing.T) {
	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, mock.Anything).Return([]models.Candidate{}, nil)
	recorder := new(MockRecorder)

	_, err := newTestPlanner(t, extractor, provider, new(MockSelector), WithRecorders(recorder)).
		Plan(context.Background(), models.OrderRequest{Prompt: "x", Location: loc("y")})

	require.Error(t, err)
	recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlanner_Assemble_MissingCandidateFields(t *testing.T) {
	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(&models.Constraints{}, nil)
	provider := new(MockProvider)
	provider.On("Search", mock.Anything, mock.Anything).Return([]models.Candidate{{ID: "bare"}}, nil)
	selector := new(MockSelector)
	selector.On("Select", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Selection{ValidIndex: true, ItemName: "Recommended item"}, nil)

	result, err := newTestPlanner(t, extractor, provider, selector).
		Plan(context.Background(), models.OrderRequest{Prompt: "x", Location: loc("y")})

	require.NoError(t, err)
	assert.Equal(t, "Unknown restaurant", result.RestaurantName)
	assert.Equal(t, "Address unavailable", result.RestaurantAddress)
	assert.Equal(t, "", result.CheckoutURL)
}
