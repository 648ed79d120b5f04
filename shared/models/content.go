package models

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/apperrors"
)

const (
	ContentDraft         = "draft"
	ContentPendingReview = "pending_review"
	ContentApproved      = "approved"
	ContentPublished     = "published"
	ContentRejected      = "rejected"
	ContentArchived      = "archived"

	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// ContentStatuses lists every status in lifecycle order.
var ContentStatuses = []string{
	ContentDraft, ContentPendingReview, ContentApproved, ContentPublished, ContentRejected, ContentArchived,
}

type Content struct {
	AggregateRoot

	ID          string
	AccountID   string
	Title       string
	Slug        string
	Body        string
	Status      string
	AuthorID    string
	WorkflowID  string
	CurrentStep int
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// ContentApproval records one approver decision on one workflow step.
type ContentApproval struct {
	ID        string
	AccountID string
	ContentID string
	Step      int
	ActorID   string
	Decision  string
	Comment   string
	CreatedAt time.Time
}

func NewContent(id, accountID, authorID, title, slug, body string, now time.Time) *Content {
	c := &Content{
		ID:        id,
		AccountID: accountID,
		AuthorID:  authorID,
		Title:     title,
		Slug:      slug,
		Body:      body,
		Status:    ContentDraft,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	c.Raise(EventContentCreated, EntityContent, c.ID, c.eventData(""), now)
	return c
}

// Edit is allowed on drafts and on rejected content; the latter goes back to draft.
func (c *Content) Edit(title, slug, body string, now time.Time) error {
	switch c.Status {
	case ContentDraft:
	case ContentRejected:
		c.Status = ContentDraft
		c.WorkflowID = ""
		c.CurrentStep = 0
	default:
		return c.transitionError("edited")
	}
	c.Title = title
	c.Slug = slug
	c.Body = body
	c.UpdatedAt = now.UTC()
	c.Raise(EventContentUpdated, EntityContent, c.ID, c.eventData(""), now)
	return nil
}

// Submit starts the approval chain. Without a workflow the content is approved
// immediately.
func (c *Content) Submit(wf *Workflow, now time.Time) error {
	if c.Status != ContentDraft {
		return c.transitionError("submitted")
	}
	c.UpdatedAt = now.UTC()
	if wf == nil {
		c.Status = ContentApproved
		c.Raise(EventContentSubmitted, EntityContent, c.ID, c.eventData(""), now)
		c.Raise(EventContentApproved, EntityContent, c.ID, c.eventData(""), now)
		return nil
	}
	c.Status = ContentPendingReview
	c.WorkflowID = wf.ID
	c.CurrentStep = 1
	c.Raise(EventContentSubmitted, EntityContent, c.ID, c.eventData(""), now)
	return nil
}

// Approve records the actor's approval of the current step and either moves to
// the next step or, on the last one, approves the content.
func (c *Content) Approve(wf *Workflow, approvalID, actorID string, actorRoleIDs []string, comment string, now time.Time) (*ContentApproval, error) {
	step, err := c.reviewStep(wf, actorRoleIDs)
	if err != nil {
		return nil, err
	}
	approval := c.newApproval(approvalID, step.Order, actorID, DecisionApproved, comment, now)
	c.UpdatedAt = now.UTC()
	if step.Order >= len(wf.Steps) {
		c.Status = ContentApproved
		c.Raise(EventContentApproved, EntityContent, c.ID, c.eventData(comment), now)
		return approval, nil
	}
	c.CurrentStep = step.Order + 1
	c.Raise(EventContentStepApproved, EntityContent, c.ID, c.eventData(comment), now)
	return approval, nil
}

func (c *Content) Reject(wf *Workflow, approvalID, actorID string, actorRoleIDs []string, comment string, now time.Time) (*ContentApproval, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, apperrors.Validation("a rejection needs a comment")
	}
	step, err := c.reviewStep(wf, actorRoleIDs)
	if err != nil {
		return nil, err
	}
	approval := c.newApproval(approvalID, step.Order, actorID, DecisionRejected, comment, now)
	c.Status = ContentRejected
	c.UpdatedAt = now.UTC()
	c.Raise(EventContentRejected, EntityContent, c.ID, c.eventData(comment), now)
	return approval, nil
}

func (c *Content) Publish(now time.Time) error {
	if c.Status != ContentApproved {
		return c.transitionError("published")
	}
	t := now.UTC()
	c.Status = ContentPublished
	c.PublishedAt = &t
	c.UpdatedAt = t
	c.Raise(EventContentPublished, EntityContent, c.ID, c.eventData(""), now)
	return nil
}

func (c *Content) Unpublish(now time.Time) error {
	if c.Status != ContentPublished {
		return c.transitionError("unpublished")
	}
	c.Status = ContentApproved
	c.PublishedAt = nil
	c.UpdatedAt = now.UTC()
	c.Raise(EventContentUnpublished, EntityContent, c.ID, c.eventData(""), now)
	return nil
}

func (c *Content) Archive(now time.Time) error {
	if c.Status == ContentPendingReview || c.Status == ContentArchived {
		return c.transitionError("archived")
	}
	c.Status = ContentArchived
	c.PublishedAt = nil
	c.UpdatedAt = now.UTC()
	c.Raise(EventContentArchived, EntityContent, c.ID, c.eventData(""), now)
	return nil
}

func (c *Content) MarkDeleted(now time.Time) error {
	if c.Status == ContentPublished {
		return c.transitionError("deleted")
	}
	t := now.UTC()
	c.DeletedAt = &t
	c.UpdatedAt = t
	c.Raise(EventContentDeleted, EntityContent, c.ID, c.eventData(""), now)
	return nil
}

func (c *Content) reviewStep(wf *Workflow, actorRoleIDs []string) (*WorkflowStep, error) {
	if c.Status != ContentPendingReview {
		return nil, c.transitionError("reviewed")
	}
	if wf == nil || wf.ID != c.WorkflowID {
		return nil, apperrors.ErrWorkflowNotFound
	}
	step := wf.Step(c.CurrentStep)
	if step == nil {
		return nil, apperrors.ErrInvalidTransition.WithMessage("content is on an unknown workflow step")
	}
	if !lo.Contains(actorRoleIDs, step.ApproverRoleID) {
		return nil, apperrors.ErrNotApprover
	}
	return step, nil
}

func (c *Content) newApproval(id string, step int, actorID, decision, comment string, now time.Time) *ContentApproval {
	return &ContentApproval{
		ID:        id,
		AccountID: c.AccountID,
		ContentID: c.ID,
		Step:      step,
		ActorID:   actorID,
		Decision:  decision,
		Comment:   comment,
		CreatedAt: now.UTC(),
	}
}

func (c *Content) transitionError(action string) error {
	return apperrors.ErrInvalidTransition.WithMessage("content in status " + c.Status + " cannot be " + action)
}

func (c *Content) eventData(comment string) ContentEventData {
	return ContentEventData{
		ContentID:  c.ID,
		Title:      c.Title,
		Status:     c.Status,
		WorkflowID: c.WorkflowID,
		Step:       c.CurrentStep,
		Comment:    comment,
	}
}
