package domain

import (
	"fmt"
	"time"
)

// WorkflowStatus represents the overall status of a bump session
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "pending"
	WorkflowStatusRunning    WorkflowStatus = "running"
	WorkflowStatusCompleted  WorkflowStatus = "completed"
	WorkflowStatusFailed     WorkflowStatus = "failed"
	WorkflowStatusRolledBack WorkflowStatus = "rolled_back"
)

// OperationStatus represents the status of an individual operation
type OperationStatus string

const (
	OperationStatusPending    OperationStatus = "pending"
	OperationStatusRunning    OperationStatus = "running"
	OperationStatusCompleted  OperationStatus = "completed"
	OperationStatusFailed     OperationStatus = "failed"
	OperationStatusRolledBack OperationStatus = "rolled_back"
)

// OperationType identifies a step of the publish sequence
type OperationType string

const (
	OperationTypePreVersionHook       OperationType = "pre_version_hook"
	OperationTypeWriteManifest        OperationType = "write_manifest"
	OperationTypeReloadManifest       OperationType = "reload_manifest"
	OperationTypePreVersionCommitHook OperationType = "pre_version_commit_hook"
	OperationTypeCommitChanges        OperationType = "commit_changes"
	OperationTypeCreateTag            OperationType = "create_tag"
)

// RollbackState records a bump session so a failed run can be inspected later.
type RollbackState struct {
	SessionID       string            `json:"session_id"`
	StartedAt       time.Time         `json:"started_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	PreviousVersion string            `json:"previous_version"`
	Version         string            `json:"version"`
	ManifestPath    string            `json:"manifest_path"`
	Operations      []OperationRecord `json:"operations"`
	Status          WorkflowStatus    `json:"status"`
	Error           string            `json:"error,omitempty"`
}

// OperationRecord represents a single operation in the workflow
type OperationRecord struct {
	ID           string          `json:"id"`
	Type         OperationType   `json:"type"`
	Status       OperationStatus `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	RollbackData map[string]any  `json:"rollback_data,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// NewRollbackState creates a new rollback state
func NewRollbackState(sessionID string) *RollbackState {
	now := time.Now()
	return &RollbackState{
		SessionID:  sessionID,
		StartedAt:  now,
		UpdatedAt:  now,
		Operations: []OperationRecord{},
		Status:     WorkflowStatusPending,
	}
}

// AddOperation appends a pending operation record
func (rs *RollbackState) AddOperation(opType OperationType) *OperationRecord {
	rs.Operations = append(rs.Operations, OperationRecord{
		ID:        generateOperationID(opType, len(rs.Operations)),
		Type:      opType,
		Status:    OperationStatusPending,
		StartedAt: time.Now(),
	})
	rs.UpdatedAt = time.Now()
	return &rs.Operations[len(rs.Operations)-1]
}

// GetCompletedOperations returns completed operations, most recent first
func (rs *RollbackState) GetCompletedOperations() []OperationRecord {
	var completed []OperationRecord
	for i := len(rs.Operations) - 1; i >= 0; i-- {
		if rs.Operations[i].Status == OperationStatusCompleted {
			completed = append(completed, rs.Operations[i])
		}
	}
	return completed
}

// MarkOperationStarted marks the first pending operation of opType as running
func (rs *RollbackState) MarkOperationStarted(opType OperationType) {
	if op := rs.find(opType, OperationStatusPending); op != nil {
		op.Status = OperationStatusRunning
		op.StartedAt = time.Now()
		rs.UpdatedAt = op.StartedAt
	}
}

// MarkOperationCompleted marks the running operation of opType as completed
func (rs *RollbackState) MarkOperationCompleted(opType OperationType, rollbackData map[string]any) {
	if op := rs.find(opType, OperationStatusRunning); op != nil {
		now := time.Now()
		op.Status = OperationStatusCompleted
		op.CompletedAt = &now
		op.RollbackData = rollbackData
		rs.UpdatedAt = now
	}
}

// MarkOperationFailed marks the running operation of opType as failed and fails the session
func (rs *RollbackState) MarkOperationFailed(opType OperationType, err error) {
	now := time.Now()
	if op := rs.find(opType, OperationStatusRunning); op != nil {
		op.Status = OperationStatusFailed
		op.CompletedAt = &now
		op.Error = err.Error()
	}
	rs.UpdatedAt = now
	rs.Status = WorkflowStatusFailed
	rs.Error = err.Error()
}

// MarkOperationRolledBack marks a completed operation of opType as compensated
func (rs *RollbackState) MarkOperationRolledBack(opType OperationType) {
	if op := rs.find(opType, OperationStatusCompleted); op != nil {
		op.Status = OperationStatusRolledBack
		rs.UpdatedAt = time.Now()
	}
}

func (rs *RollbackState) find(opType OperationType, status OperationStatus) *OperationRecord {
	for i := range rs.Operations {
		if rs.Operations[i].Type == opType && rs.Operations[i].Status == status {
			return &rs.Operations[i]
		}
	}
	return nil
}

// generateOperationID creates an ID unique within a session
func generateOperationID(opType OperationType, seq int) string {
	return fmt.Sprintf("%s_%d_%s", opType, seq, time.Now().Format("20060102150405"))
}
