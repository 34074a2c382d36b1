package orchestrator

import (
	"context"
	"fmt"

	"github.com/compozy/verbump/internal/domain"
	"github.com/compozy/verbump/internal/repository"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// SagaStep represents a single step in the saga workflow
type SagaStep struct {
	Name       string
	Type       domain.OperationType
	Execute    func(ctx context.Context) (rollbackData map[string]any, err error)
	Compensate func(ctx context.Context, rollbackData map[string]any) error
}

// SagaExecutor runs steps in order and, when one fails, compensates the
// completed ones in reverse. Steps run once; compensations are retried.
type SagaExecutor struct {
	sessionID string
	journal   repository.JournalRepository
	state     *domain.RollbackState
	steps     []SagaStep
	logger    *zap.Logger
}

// NewSagaExecutor creates a new saga executor. A nil journal disables persistence.
func NewSagaExecutor(journal repository.JournalRepository, logger *zap.Logger) *SagaExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := uuid.New().String()
	return &SagaExecutor{
		sessionID: sessionID,
		journal:   journal,
		state:     domain.NewRollbackState(sessionID),
		steps:     []SagaStep{},
		logger:    logger.With(zap.String("session_id", sessionID)),
	}
}

// AddStep adds a step to the saga
func (s *SagaExecutor) AddStep(step SagaStep) {
	s.steps = append(s.steps, step)
	s.state.AddOperation(step.Type)
}

// Execute runs the saga workflow with automatic rollback on failure
func (s *SagaExecutor) Execute(ctx context.Context) error {
	if err := s.saveState(ctx); err != nil {
		return fmt.Errorf("failed to save initial state: %w", err)
	}
	s.state.Status = domain.WorkflowStatusRunning
	for _, step := range s.steps {
		if err := s.executeStep(ctx, step); err != nil {
			s.state.MarkOperationFailed(step.Type, err)
			s.saveStateBestEffort(ctx, "before rollback")
			// Separate context so a canceled parent cannot stop the rollback
			rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RollbackTimeout)
			rollbackErr := s.rollback(rollbackCtx)
			cancel()
			if rollbackErr != nil {
				return fmt.Errorf("%w (rollback also failed: %v)", err, rollbackErr)
			}
			return err
		}
	}
	s.state.Status = domain.WorkflowStatusCompleted
	s.saveStateBestEffort(ctx, "at completion")
	return nil
}

// executeStep executes a single saga step
func (s *SagaExecutor) executeStep(ctx context.Context, step SagaStep) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s canceled: %w", step.Name, err)
	}
	s.state.MarkOperationStarted(step.Type)
	s.saveStateBestEffort(ctx, "after marking operation started")
	s.logger.Debug("executing step", zap.String("step", step.Name))
	rollbackData, err := step.Execute(ctx)
	if err != nil {
		s.logger.Debug("step failed", zap.String("step", step.Name), zap.Error(err))
		return err
	}
	s.state.MarkOperationCompleted(step.Type, rollbackData)
	s.saveStateBestEffort(ctx, "after marking operation completed")
	return nil
}

// rollback executes compensating actions for completed operations
func (s *SagaExecutor) rollback(ctx context.Context) error {
	completedOps := s.state.GetCompletedOperations()
	if len(completedOps) == 0 {
		s.logger.Debug("no operations to roll back")
		return nil
	}
	s.logger.Info("starting rollback", zap.Int("operations", len(completedOps)))
	for _, op := range completedOps {
		select {
		case <-ctx.Done():
			return fmt.Errorf("rollback canceled: %w", ctx.Err())
		default:
		}
		step := s.findStepByType(op.Type)
		if step == nil || step.Compensate == nil {
			continue
		}
		s.logger.Info("rolling back", zap.String("step", step.Name))
		if err := s.executeCompensation(ctx, step, op.RollbackData); err != nil {
			s.logger.Error("rollback step failed", zap.String("step", step.Name), zap.Error(err))
			return fmt.Errorf("rollback failed for %s: %w", step.Name, err)
		}
		s.state.MarkOperationRolledBack(op.Type)
		s.saveStateBestEffort(ctx, "during rollback")
	}
	s.state.Status = domain.WorkflowStatusRolledBack
	s.saveStateBestEffort(ctx, "after rollback")
	s.logger.Info("rollback completed")
	return nil
}

// executeCompensation executes a compensating action with retry
func (s *SagaExecutor) executeCompensation(ctx context.Context, step *SagaStep, rollbackData map[string]any) error {
	retryStrategy := retry.WithMaxRetries(DefaultRetryCount, retry.NewExponential(DefaultRetryDelay))
	return retry.Do(ctx, retryStrategy, func(retryCtx context.Context) error {
		if err := step.Compensate(retryCtx, rollbackData); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// findStepByType finds a saga step by operation type
func (s *SagaExecutor) findStepByType(opType domain.OperationType) *SagaStep {
	for i := range s.steps {
		if s.steps[i].Type == opType {
			return &s.steps[i]
		}
	}
	return nil
}

// saveState persists the current state when a journal is configured
func (s *SagaExecutor) saveState(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Save(ctx, s.state)
}

func (s *SagaExecutor) saveStateBestEffort(ctx context.Context, when string) {
	if err := s.saveState(ctx); err != nil {
		s.logger.Warn("failed to save journal state", zap.String("when", when), zap.Error(err))
	}
}

// GetState returns the current saga state
func (s *SagaExecutor) GetState() *domain.RollbackState {
	return s.state
}

// SessionID returns the id journal entries are stored under
func (s *SagaExecutor) SessionID() string {
	return s.sessionID
}

// SetVersions records the version transition in the state
func (s *SagaExecutor) SetVersions(previous, next string) {
	s.state.PreviousVersion = previous
	s.state.Version = next
}

// SetManifestPath records the manifest being bumped in the state
func (s *SagaExecutor) SetManifestPath(path string) {
	s.state.ManifestPath = path
}
