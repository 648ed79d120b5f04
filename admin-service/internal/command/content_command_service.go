package command

import (
	"context"
	"errors"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

type ContentStore interface {
	Create(ctx context.Context, c *models.Content) error
	Save(ctx context.Context, c *models.Content, approval *models.ContentApproval) error
	GetByID(ctx context.Context, accountID, id string) (*models.Content, error)
}

// WorkflowLookup finds the workflow a piece of content is reviewed under.
type WorkflowLookup interface {
	GetByID(ctx context.Context, accountID, id string) (*models.Workflow, error)
	GetDefault(ctx context.Context, accountID string) (*models.Workflow, error)
}

// ReviewerLookup loads the reviewing user to read their roles.
type ReviewerLookup interface {
	GetByID(ctx context.Context, accountID, id string) (*models.User, error)
}

type ContentCommandService struct {
	content   ContentStore
	workflows WorkflowLookup
	users     ReviewerLookup
	publisher EventPublisher
	clock     clock.Clock
}

func NewContentCommandService(content ContentStore, workflows WorkflowLookup, users ReviewerLookup, publisher EventPublisher, clk clock.Clock) *ContentCommandService {
	return &ContentCommandService{content: content, workflows: workflows, users: users, publisher: publisher, clock: clk}
}

func (s *ContentCommandService) CreateContent(ctx context.Context, cmd cqrs.CreateContentCommand) (*models.ContentView, error) {
	slug, err := contentSlug(cmd.Slug, cmd.Title)
	if err != nil {
		return nil, err
	}
	c := models.NewContent(utils.GenerateID("cnt"), cmd.AccountID, cmd.UserID, cmd.Title, slug, cmd.Body, s.clock.Now())
	if err := s.content.Create(ctx, c); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, c)
	return models.NewContentView(c), nil
}

func (s *ContentCommandService) UpdateContent(ctx context.Context, cmd cqrs.UpdateContentCommand) (*models.ContentView, error) {
	slug, err := contentSlug(cmd.Slug, cmd.Title)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, cmd.Actor, cmd.ContentID, func(c *models.Content) error {
		return c.Edit(cmd.Title, slug, cmd.Body, s.clock.Now())
	})
}

func (s *ContentCommandService) DeleteContent(ctx context.Context, cmd cqrs.DeleteContentCommand) error {
	_, err := s.apply(ctx, cmd.Actor, cmd.ContentID, func(c *models.Content) error {
		return c.MarkDeleted(s.clock.Now())
	})
	return err
}

// SubmitContent starts review under the requested workflow, else the account
// default. Without either the content is approved straight away.
func (s *ContentCommandService) SubmitContent(ctx context.Context, cmd cqrs.SubmitContentCommand) (*models.ContentView, error) {
	var wf *models.Workflow
	var err error
	if cmd.WorkflowID != "" {
		wf, err = s.workflows.GetByID(ctx, cmd.AccountID, cmd.WorkflowID)
	} else {
		wf, err = s.workflows.GetDefault(ctx, cmd.AccountID)
	}
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, cmd.Actor, cmd.ContentID, func(c *models.Content) error {
		return c.Submit(wf, s.clock.Now())
	})
}

func (s *ContentCommandService) ApproveContent(ctx context.Context, cmd cqrs.ApproveContentCommand) (*models.ContentView, error) {
	return s.review(ctx, cmd.Actor, cmd.ContentID, func(c *models.Content, wf *models.Workflow, roles []string) (*models.ContentApproval, error) {
		return c.Approve(wf, utils.GenerateID("apr"), cmd.Actor.UserID, roles, cmd.Comment, s.clock.Now())
	})
}

func (s *ContentCommandService) RejectContent(ctx context.Context, cmd cqrs.RejectContentCommand) (*models.ContentView, error) {
	return s.review(ctx, cmd.Actor, cmd.ContentID, func(c *models.Content, wf *models.Workflow, roles []string) (*models.ContentApproval, error) {
		return c.Reject(wf, utils.GenerateID("apr"), cmd.Actor.UserID, roles, cmd.Comment, s.clock.Now())
	})
}

func (s *ContentCommandService) PublishContent(ctx context.Context, cmd cqrs.PublishContentCommand) (*models.ContentView, error) {
	return s.apply(ctx, cmd.Actor, cmd.ContentID, func(c *models.Content) error {
		return c.Publish(s.clock.Now())
	})
}

func (s *ContentCommandService) UnpublishContent(ctx context.Context, cmd cqrs.UnpublishContentCommand) (*models.ContentView, error) {
	return s.apply(ctx, cmd.Actor, cmd.ContentID, func(c *models.Content) error {
		return c.Unpublish(s.clock.Now())
	})
}

func (s *ContentCommandService) ArchiveContent(ctx context.Context, cmd cqrs.ArchiveContentCommand) (*models.ContentView, error) {
	return s.apply(ctx, cmd.Actor, cmd.ContentID, func(c *models.Content) error {
		return c.Archive(s.clock.Now())
	})
}

func (s *ContentCommandService) apply(ctx context.Context, actor cqrs.Actor, contentID string, fn func(*models.Content) error) (*models.ContentView, error) {
	c, err := s.content.GetByID(ctx, actor.AccountID, contentID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.content.Save(ctx, c, nil); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, actor.AccountID, actor.UserID, c)
	return models.NewContentView(c), nil
}

type reviewFunc func(c *models.Content, wf *models.Workflow, actorRoles []string) (*models.ContentApproval, error)

// review runs an approval decision with the reviewer's current role set. Only
// users can review; an API key actor never holds an approver role.
func (s *ContentCommandService) review(ctx context.Context, actor cqrs.Actor, contentID string, fn reviewFunc) (*models.ContentView, error) {
	c, err := s.content.GetByID(ctx, actor.AccountID, contentID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.ContentPendingReview {
		return nil, apperrors.ErrInvalidTransition.WithMessage("content in status " + c.Status + " cannot be reviewed")
	}
	wf, err := s.workflows.GetByID(ctx, actor.AccountID, c.WorkflowID)
	if err != nil {
		return nil, err
	}
	reviewer, err := s.users.GetByID(ctx, actor.AccountID, actor.UserID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, apperrors.ErrNotApprover
	}
	if err != nil {
		return nil, err
	}
	approval, err := fn(c, wf, reviewer.RoleIDs)
	if err != nil {
		return nil, err
	}
	if err := s.content.Save(ctx, c, approval); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, actor.AccountID, actor.UserID, c)
	return models.NewContentView(c), nil
}

func contentSlug(slug, title string) (string, error) {
	if slug == "" {
		slug = utils.Slugify(title)
	}
	if !utils.ValidSlug(slug) {
		return "", apperrors.Validation("slug may only contain lowercase letters, digits and dashes")
	}
	return slug, nil
}
