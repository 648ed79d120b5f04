package models

import (
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
)

const MaxWorkflowSteps = 10

type WorkflowStep struct {
	Order          int    `json:"order"`
	Name           string `json:"name"`
	ApproverRoleID string `json:"approverRoleId"`
}

// Workflow is an ordered list of approval steps, each gated by one role.
type Workflow struct {
	AggregateRoot

	ID          string
	AccountID   string
	Name        string
	Description string
	Steps       []WorkflowStep
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewWorkflow(id, accountID, name, description string, steps []WorkflowStep, isDefault bool, now time.Time) (*Workflow, error) {
	numbered, err := numberSteps(steps)
	if err != nil {
		return nil, err
	}
	w := &Workflow{
		ID:          id,
		AccountID:   accountID,
		Name:        name,
		Description: description,
		Steps:       numbered,
		IsDefault:   isDefault,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	w.Raise(EventWorkflowCreated, EntityWorkflow, w.ID, w.eventData(), now)
	return w, nil
}

func (w *Workflow) Update(name, description string, steps []WorkflowStep, isDefault bool, now time.Time) error {
	numbered, err := numberSteps(steps)
	if err != nil {
		return err
	}
	w.Name = name
	w.Description = description
	w.Steps = numbered
	w.IsDefault = isDefault
	w.UpdatedAt = now.UTC()
	w.Raise(EventWorkflowUpdated, EntityWorkflow, w.ID, w.eventData(), now)
	return nil
}

func (w *Workflow) MarkDeleted(now time.Time) {
	w.Raise(EventWorkflowDeleted, EntityWorkflow, w.ID, w.eventData(), now)
}

// Step returns the step with the given 1-based order, or nil.
func (w *Workflow) Step(order int) *WorkflowStep {
	if order < 1 || order > len(w.Steps) {
		return nil
	}
	return &w.Steps[order-1]
}

// RoleIDs lists the approver role of every step.
func (w *Workflow) RoleIDs() []string {
	ids := make([]string, 0, len(w.Steps))
	for _, s := range w.Steps {
		ids = append(ids, s.ApproverRoleID)
	}
	return ids
}

func (w *Workflow) eventData() WorkflowEventData {
	return WorkflowEventData{WorkflowID: w.ID, Name: w.Name, Steps: len(w.Steps), IsDefault: w.IsDefault}
}

func numberSteps(steps []WorkflowStep) ([]WorkflowStep, error) {
	if len(steps) == 0 || len(steps) > MaxWorkflowSteps {
		return nil, apperrors.Validation("a workflow needs between 1 and 10 steps")
	}
	out := make([]WorkflowStep, len(steps))
	for i, s := range steps {
		if s.ApproverRoleID == "" {
			return nil, apperrors.Validation("every step needs an approver role")
		}
		s.Order = i + 1
		out[i] = s
	}
	return out, nil
}
