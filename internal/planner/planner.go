package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/abhisek/skillprobe/internal/question"
)

// ErrNoTags is returned when asked to plan a question with no tags.
var ErrNoTags = errors.New("no tags to plan from")

// AdviceRequest is what an Advisor sees when proposing the next question.
type AdviceRequest struct {
	Tags       []string
	Beliefs    map[string]float64
	Exposures  map[string]int
	AskedTypes map[question.Type]int

	// Suggested is the deterministic plan, passed as a bias.
	Suggested question.Spec
}

// Advisor proposes the next question spec. Its output is untrusted and is
// validated before use.
type Advisor interface {
	Advise(ctx context.Context, req AdviceRequest) (question.Spec, error)
}

// Source records where a planned spec came from.
type Source string

const (
	SourceAdvisor  Source = "advisor"
	SourceFallback Source = "fallback"
)

// PlanInput is the session state the planner reads.
type PlanInput struct {
	Tags         []string
	Beliefs      map[string]float64
	Exposures    map[string]int
	AskedTags    map[string]int
	AskedTypes   map[question.Type]int
	TotalAsked   int
	MaxQuestions int
}

// Config holds planner settings.
type Config struct {
	Distribution Distribution
	MaxTags      int
}

// DefaultConfig returns the default planner settings.
func DefaultConfig() Config {
	return Config{
		Distribution: DefaultDistribution(),
		MaxTags:      2,
	}
}

// Planner builds question specs. When an Advisor is set it is consulted
// through a circuit breaker; any advisor failure or invalid output falls
// back to the deterministic deficit plan, so planning never stalls on it.
type Planner struct {
	config  Config
	advisor Advisor
	breaker circuitbreaker.CircuitBreaker[question.Spec]
	logger  *slog.Logger
}

// New creates a planner. advisor may be nil.
func New(cfg Config, advisor Advisor, logger *slog.Logger) *Planner {
	if cfg.Distribution == nil {
		cfg.Distribution = DefaultDistribution()
	}
	if cfg.MaxTags <= 0 {
		cfg.MaxTags = DefaultConfig().MaxTags
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Planner{
		config:  cfg,
		advisor: advisor,
		logger:  logger,
	}
	if advisor != nil {
		p.breaker = circuitbreaker.New[question.Spec](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Warn("advisor circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			},
		})
	}
	return p
}

// Fallback computes the deterministic spec: tags from SelectTags, type from
// NextType, difficulty from the chosen tags' mean belief.
func (p *Planner) Fallback(in PlanInput) (question.Spec, error) {
	tags := SelectTags(in.Tags, in.Exposures, in.Beliefs, in.AskedTags, p.config.MaxTags)
	if len(tags) == 0 {
		return question.Spec{}, ErrNoTags
	}
	return question.Spec{
		Tags:       tags,
		Type:       NextType(p.config.Distribution, in.AskedTypes, in.TotalAsked, in.MaxQuestions),
		Difficulty: DifficultyFor(tags, in.Beliefs),
	}, nil
}

// Plan returns the spec for the next question and where it came from.
func (p *Planner) Plan(ctx context.Context, in PlanInput) (question.Spec, Source, error) {
	fallback, err := p.Fallback(in)
	if err != nil {
		return question.Spec{}, "", err
	}
	if p.advisor == nil {
		return fallback, SourceFallback, nil
	}

	known := make(map[string]bool, len(in.Tags))
	for _, t := range in.Tags {
		known[t] = true
	}

	req := AdviceRequest{
		Tags:       in.Tags,
		Beliefs:    in.Beliefs,
		Exposures:  in.Exposures,
		AskedTypes: in.AskedTypes,
		Suggested:  fallback,
	}
	spec, err := p.breaker.Execute(ctx, func(ctx context.Context) (question.Spec, error) {
		s, err := p.advisor.Advise(ctx, req)
		if err != nil {
			return question.Spec{}, err
		}
		if err := validateAdvice(s, known); err != nil {
			return question.Spec{}, err
		}
		return s, nil
	})
	if err != nil {
		p.logger.Warn("advisor unavailable, using fallback plan", "error", err)
		return fallback, SourceFallback, nil
	}
	return spec, SourceAdvisor, nil
}

func validateAdvice(s question.Spec, known map[string]bool) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid advice: %w", err)
	}
	if len(s.Tags) > MaxTagsPerQuestion {
		return fmt.Errorf("invalid advice: %d tags exceeds %d", len(s.Tags), MaxTagsPerQuestion)
	}
	seen := make(map[string]bool, len(s.Tags))
	for _, t := range s.Tags {
		if !known[t] {
			return fmt.Errorf("invalid advice: unknown tag %q", t)
		}
		if seen[t] {
			return fmt.Errorf("invalid advice: duplicate tag %q", t)
		}
		seen[t] = true
	}
	return nil
}
