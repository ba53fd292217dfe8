package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// StageStatus is the lifecycle state of one pipeline stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageActive    StageStatus = "active"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// Stage is one unit of work in a study run. Stages read their inputs
// from the shared run state and leave their outputs on it; the manager
// resolves execution order from the declared dependencies.
type Stage interface {
	// ID identifies the stage in dependency declarations, logs, and
	// the run report.
	ID() string

	// Name is the human-readable stage title.
	Name() string

	// Validate checks that the run state carries everything Execute
	// needs. A validation failure skips the stage and its dependents.
	Validate(state *RunState) error

	// Execute performs the stage's work.
	Execute(ctx context.Context, state *RunState) error

	// Dependencies lists the stage IDs that must complete first.
	Dependencies() []string
}

// StageState tracks one stage's status and timings through a run.
type StageState struct {
	mu          sync.RWMutex
	id          string
	name        string
	status      StageStatus
	startedAt   time.Time
	completedAt time.Time
	err         error
	reason      string
}

func newStageState(s Stage) *StageState {
	return &StageState{id: s.ID(), name: s.Name(), status: StagePending}
}

// Start marks the stage active.
func (s *StageState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StageActive
	s.startedAt = time.Now()
}

// Complete marks the stage completed.
func (s *StageState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StageCompleted
	s.completedAt = time.Now()
}

// Fail marks the stage failed with its error.
func (s *StageState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StageFailed
	s.completedAt = time.Now()
	s.err = err
}

// Skip marks a pending stage skipped with a reason. Stages that have
// already started keep their status.
func (s *StageState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StagePending {
		return
	}
	s.status = StageSkipped
	s.reason = reason
}

// Status returns the current lifecycle state.
func (s *StageState) Status() StageStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Reason returns the skip reason, if any.
func (s *StageState) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Err returns the failure, if any.
func (s *StageState) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Duration returns how long the stage ran; zero when it never started.
func (s *StageState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.startedAt.IsZero():
		return 0
	case s.completedAt.IsZero():
		return time.Since(s.startedAt)
	default:
		return s.completedAt.Sub(s.startedAt)
	}
}

// Summary renders the stage outcome for the run report. The Error
// field carries the failure message or the skip reason.
func (s *StageState) Summary() domain.StageSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := domain.StageSummary{
		ID:          s.id,
		Name:        s.name,
		Status:      string(s.status),
		StartedAt:   s.startedAt,
		CompletedAt: s.completedAt,
	}
	switch {
	case s.err != nil:
		sum.Error = s.err.Error()
	case s.reason != "":
		sum.Error = s.reason
	}
	return sum
}
