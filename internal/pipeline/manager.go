package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/Karanjudyani/macro-market-shock-transmissions/internal/errors"
)

// tracerName is the instrumentation scope of the pipeline spans.
const tracerName = "event-study.pipeline"

// Manager executes registered stages sequentially in dependency
// order. A failed stage skips its dependents; independent branches
// keep running, so one broken analysis never withholds the tables of
// another.
type Manager struct {
	log    *slog.Logger
	tracer trace.Tracer
	stages []Stage
	byID   map[string]Stage
}

// NewManager wires a stage manager. A nil logger falls back to
// slog.Default.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:    log,
		tracer: otel.Tracer(tracerName),
		byID:   make(map[string]Stage),
	}
}

// Register adds stages. Registration order breaks ties between stages
// whose dependencies leave them otherwise unordered.
func (m *Manager) Register(stages ...Stage) error {
	for _, s := range stages {
		if s == nil {
			return apperrors.NewConfigurationError("cannot register a nil stage", nil)
		}
		if s.ID() == "" {
			return apperrors.NewConfigurationError("stage ID cannot be empty", nil)
		}
		if _, dup := m.byID[s.ID()]; dup {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("stage %s is already registered", s.ID()), nil)
		}
		m.byID[s.ID()] = s
		m.stages = append(m.stages, s)
	}
	return nil
}

// dependencyOrder topologically sorts the registered stages, taking
// the first ready stage in registration order at every step.
func (m *Manager) dependencyOrder() ([]Stage, error) {
	inDegree := make(map[string]int, len(m.stages))
	dependents := make(map[string][]string, len(m.stages))
	for _, s := range m.stages {
		for _, dep := range s.Dependencies() {
			if _, ok := m.byID[dep]; !ok {
				return nil, apperrors.NewConfigurationError(
					fmt.Sprintf("stage %s depends on unregistered stage %s", s.ID(), dep), nil)
			}
			dependents[dep] = append(dependents[dep], s.ID())
			inDegree[s.ID()]++
		}
	}

	ordered := make([]Stage, 0, len(m.stages))
	emitted := make(map[string]bool, len(m.stages))
	for len(ordered) < len(m.stages) {
		var next Stage
		for _, s := range m.stages {
			if !emitted[s.ID()] && inDegree[s.ID()] == 0 {
				next = s
				break
			}
		}
		if next == nil {
			return nil, apperrors.NewConfigurationError("stage dependency cycle detected", nil)
		}
		emitted[next.ID()] = true
		ordered = append(ordered, next)
		for _, id := range dependents[next.ID()] {
			inDegree[id]--
		}
	}
	return ordered, nil
}

// Run executes every registered stage and records the outcomes on the
// run report. The first stage failure is returned after the remaining
// independent stages have run.
func (m *Manager) Run(ctx context.Context, state *RunState) error {
	if state == nil {
		return apperrors.NewConfigurationError("pipeline run needs a run state", nil)
	}

	stages, err := m.dependencyOrder()
	if err != nil {
		return err
	}

	var label string
	if state.Spec != nil {
		label = state.Spec.Label
	}
	var runID string
	if state.Report != nil {
		runID = state.Report.RunID
	}

	ctx, span := m.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.event", label),
			attribute.String("run.id", runID),
			attribute.Int("run.stages", len(stages)),
		))
	defer span.End()

	m.log.Info("pipeline started",
		slog.String("event", label),
		slog.Int("stages", len(stages)))

	states := make(map[string]*StageState, len(stages))
	for _, s := range stages {
		states[s.ID()] = newStageState(s)
	}

	var firstErr error
	for _, s := range stages {
		if ctx.Err() != nil {
			for _, rest := range stages {
				states[rest.ID()].Skip("run cancelled")
			}
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			m.log.Warn("pipeline cancelled",
				slog.String("event", label),
				slog.String("stage", s.ID()))
			break
		}

		st := states[s.ID()]
		if st.Status() == StageSkipped {
			m.log.Info("stage skipped",
				slog.String("event", label),
				slog.String("stage", s.ID()),
				slog.String("reason", st.Reason()))
			continue
		}

		if err := m.executeStage(ctx, label, s, st, states, state); err != nil {
			m.skipDependents(stages, states, s.ID())
			if firstErr == nil {
				firstErr = fmt.Errorf("stage %s: %w", s.ID(), err)
			}
		}
	}

	if state.Report != nil {
		for _, s := range stages {
			state.Report.Stages = append(state.Report.Stages, states[s.ID()].Summary())
		}
	}

	if firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, firstErr.Error())
		m.log.Error("pipeline finished with failures",
			slog.String("event", label),
			slog.String("error", firstErr.Error()))
		return firstErr
	}

	span.SetStatus(codes.Ok, "pipeline completed")
	m.log.Info("pipeline completed", slog.String("event", label))
	return nil
}

// executeStage runs one stage inside its own span. Unmet dependencies
// and validation failures mark the stage skipped, not failed; both
// propagate as errors so the caller skips the dependents too.
func (m *Manager) executeStage(ctx context.Context, label string, s Stage, st *StageState, states map[string]*StageState, state *RunState) error {
	ctx, span := m.tracer.Start(ctx, "pipeline.stage."+s.ID(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stage.id", s.ID()),
			attribute.String("stage.name", s.Name()),
			attribute.String("run.event", label),
		))
	defer span.End()

	for _, dep := range s.Dependencies() {
		depState, ok := states[dep]
		if !ok {
			err := fmt.Errorf("dependency %s is not registered", dep)
			st.Skip(err.Error())
			return err
		}
		if depState.Status() != StageCompleted {
			err := fmt.Errorf("dependency %s did not complete (status %s)", dep, depState.Status())
			st.Skip(err.Error())
			return err
		}
	}

	if err := s.Validate(state); err != nil {
		st.Skip(fmt.Sprintf("validation failed: %v", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.log.Warn("stage validation failed",
			slog.String("event", label),
			slog.String("stage", s.ID()),
			slog.String("error", err.Error()))
		return err
	}

	st.Start()
	m.log.Info("stage started",
		slog.String("event", label),
		slog.String("stage", s.ID()),
		slog.String("name", s.Name()))

	if err := s.Execute(ctx, state); err != nil {
		st.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.log.Error("stage failed",
			slog.String("event", label),
			slog.String("stage", s.ID()),
			slog.Duration("duration", st.Duration()),
			slog.String("error", err.Error()))
		return err
	}

	st.Complete()
	span.SetStatus(codes.Ok, "stage completed")
	m.log.Info("stage completed",
		slog.String("event", label),
		slog.String("stage", s.ID()),
		slog.Duration("duration", st.Duration()))
	return nil
}

// skipDependents marks every pending stage that depends, directly or
// transitively, on the failed stage as skipped.
func (m *Manager) skipDependents(stages []Stage, states map[string]*StageState, failedID string) {
	for _, s := range stages {
		for _, dep := range s.Dependencies() {
			if dep != failedID {
				continue
			}
			st := states[s.ID()]
			if st.Status() == StagePending {
				st.Skip(fmt.Sprintf("dependency %s did not complete", failedID))
				m.log.Warn("stage skipped",
					slog.String("stage", s.ID()),
					slog.String("dependency", failedID))
				m.skipDependents(stages, states, s.ID())
			}
			break
		}
	}
}
