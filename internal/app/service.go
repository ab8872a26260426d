package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/awmpietro/golang-execution-graph/internal/workflow"
	"github.com/awmpietro/golang-execution-graph/internal/workflow/cache"
)

type Compiler interface {
	Compile(raw []byte) (*workflow.Graph, error)
}

type Replayer interface {
	Replay(g *workflow.Graph, events []workflow.Event) workflow.Report
}

type TraceReplayer interface {
	ReplayWithTrace(g *workflow.Graph, events []workflow.Event) *workflow.ReplayTrace
}

type Cache interface {
	GetOrCompute(ctx context.Context, raw []byte, fn cache.ComputeFunc) (*workflow.Graph, error)
}

type RenderObserver interface {
	ObserveRender(outcome string, report workflow.Report, duration time.Duration)
}

const (
	OutcomeOK                = "ok"
	OutcomeInvalidDefinition = "invalid_definition"
)

type Service struct {
	compiler Compiler
	replayer Replayer
	cache    Cache
	observer RenderObserver
	logger   *zap.Logger
}

type ServiceOption func(*Service)

func WithRenderObserver(observer RenderObserver) ServiceOption {
	return func(s *Service) {
		s.observer = observer
	}
}

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(compiler Compiler, replayer Replayer, cache Cache, opts ...ServiceOption) *Service {
	s := &Service{compiler: compiler, replayer: replayer, cache: cache, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render compiles the definition (cached) and replays events onto a private
// clone of the compiled skeleton.
func (s *Service) Render(ctx context.Context, definition []byte, events []workflow.Event, opts RenderOptions) (*RenderOutput, error) {
	start := time.Now()

	if len(definition) == 0 {
		s.observe(OutcomeInvalidDefinition, workflow.Report{}, start)
		return nil, fmt.Errorf("definition is required")
	}

	skeleton, err := s.cache.GetOrCompute(ctx, definition, func() (*workflow.Graph, error) {
		return s.compiler.Compile(definition)
	})
	if err != nil {
		s.observe(OutcomeInvalidDefinition, workflow.Report{}, start)
		return nil, fmt.Errorf("failed to compile definition: %w", err)
	}

	g := skeleton.Clone()
	out := &RenderOutput{Graph: g}

	if tr, ok := s.replayer.(TraceReplayer); ok && opts.Debug {
		out.Trace = tr.ReplayWithTrace(g, events)
		out.Report = out.Trace.Report
	} else {
		out.Report = s.replayer.Replay(g, events)
	}

	if out.Report.Unmatched > 0 || out.Report.Malformed > 0 {
		s.logger.Info("replay finished with skipped updates",
			zap.Int("events", out.Report.Events),
			zap.Int("unmatched", out.Report.Unmatched),
			zap.Int("malformed", out.Report.Malformed))
	}

	s.observe(OutcomeOK, out.Report, start)
	return out, nil
}

func (s *Service) observe(outcome string, report workflow.Report, start time.Time) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveRender(outcome, report, time.Since(start))
}
