package query

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeAccountLister struct {
	rows []*models.Account
}

func (f *fakeAccountLister) List(_ context.Context, q cqrs.ListAccountsQuery) ([]*models.Account, int, error) {
	var out []*models.Account
	for _, a := range f.rows {
		if q.Status == "" || a.Status == q.Status {
			out = append(out, a)
		}
	}
	total := len(out)
	start := min(q.Offset(), total)
	end := min(start+q.Limit(), total)
	return out[start:end], total, nil
}

func TestListAccounts_Pages(t *testing.T) {
	req := require.New(t)
	lister := &fakeAccountLister{}
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		lister.rows = append(lister.rows, &models.Account{ID: "acc-" + name, Name: name, Status: models.AccountActive})
	}
	svc := NewAccountQueryService(nil, lister)

	res, err := svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{Page: cqrs.Page{Page: 2, PageSize: 2}})
	req.NoError(err)
	req.Equal(3, res.Total)
	req.Equal(2, res.Page)
	req.Equal(2, res.PageSize)
	req.Len(res.Items, 1)
	req.Equal("Initech", res.Items[0].Name)
}

type fakeContent struct {
	items     map[string]*models.Content
	approvals map[string][]*models.ContentApproval
}

func (f *fakeContent) GetByID(_ context.Context, accountID, id string) (*models.Content, error) {
	c, ok := f.items[id]
	if !ok || c.AccountID != accountID {
		return nil, apperrors.ErrContentNotFound
	}
	return c, nil
}

func (f *fakeContent) List(_ context.Context, q cqrs.ListContentQuery) ([]*models.Content, int, error) {
	var out []*models.Content
	for _, c := range f.items {
		if c.AccountID == q.AccountID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (f *fakeContent) ListApprovals(_ context.Context, _, contentID string) ([]*models.ContentApproval, error) {
	return f.approvals[contentID], nil
}

func newContentFixture() *fakeContent {
	c := models.NewContent("cnt-1", "acc-1", "usr-1", "Launch", "launch", "body text", testNow)
	return &fakeContent{
		items: map[string]*models.Content{"cnt-1": c},
		approvals: map[string][]*models.ContentApproval{
			"cnt-1": {{ID: "apr-1", ContentID: "cnt-1", Step: 1, ActorID: "usr-2", Decision: models.DecisionApproved}},
		},
	}
}

func TestContentQueries(t *testing.T) {
	req := require.New(t)
	svc := NewContentQueryService(newContentFixture())
	ctx := context.Background()

	view, err := svc.GetContent(ctx, cqrs.GetContentQuery{AccountID: "acc-1", ContentID: "cnt-1"})
	req.NoError(err)
	req.Equal("body text", view.Body)

	list, err := svc.ListContent(ctx, cqrs.ListContentQuery{AccountID: "acc-1"})
	req.NoError(err)
	req.Len(list.Items, 1)
	req.Empty(list.Items[0].Body, "listings omit bodies")

	approvals, err := svc.ListApprovals(ctx, cqrs.ListApprovalsQuery{AccountID: "acc-1", ContentID: "cnt-1"})
	req.NoError(err)
	req.Len(approvals, 1)
	req.Equal(models.DecisionApproved, approvals[0].Decision)
}

func TestListApprovals_OtherTenantIsNotFound(t *testing.T) {
	svc := NewContentQueryService(newContentFixture())
	_, err := svc.ListApprovals(context.Background(), cqrs.ListApprovalsQuery{AccountID: "acc-2", ContentID: "cnt-1"})
	require.ErrorIs(t, err, apperrors.ErrContentNotFound)
}

type fakeMedia struct {
	m *models.Media
}

func (f *fakeMedia) GetByID(_ context.Context, accountID, id string) (*models.Media, error) {
	if f.m == nil || f.m.ID != id || f.m.AccountID != accountID {
		return nil, apperrors.ErrMediaNotFound
	}
	return f.m, nil
}

func (f *fakeMedia) List(context.Context, cqrs.ListMediaQuery) ([]*models.Media, int, error) {
	return []*models.Media{f.m}, 1, nil
}

type fakeBlobs map[string]string

func (f fakeBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f[key]
	if !ok {
		return nil, apperrors.ErrMediaNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func TestDownloadMedia(t *testing.T) {
	req := require.New(t)
	m := models.NewMedia("med-1", "acc-1", "notes.txt", "text/plain", 5, "acc-1/abc", "usr-1", testNow)
	svc := NewMediaQueryService(&fakeMedia{m: m}, fakeBlobs{"acc-1/abc": "hello"})

	view, rc, err := svc.DownloadMedia(context.Background(), cqrs.GetMediaQuery{AccountID: "acc-1", MediaID: "med-1"})
	req.NoError(err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	req.NoError(err)
	req.Equal("hello", string(data))
	req.Equal("notes.txt", view.FileName)

	_, _, err = svc.DownloadMedia(context.Background(), cqrs.GetMediaQuery{AccountID: "acc-2", MediaID: "med-1"})
	req.ErrorIs(err, apperrors.ErrMediaNotFound)
}

type fakeWebhooks struct {
	hooks      map[string]*models.Webhook
	deliveries []*models.WebhookDelivery
}

func (f *fakeWebhooks) GetByID(_ context.Context, accountID, id string) (*models.Webhook, error) {
	w, ok := f.hooks[id]
	if !ok || w.AccountID != accountID {
		return nil, apperrors.ErrWebhookNotFound
	}
	return w, nil
}

func (f *fakeWebhooks) List(_ context.Context, accountID string) ([]*models.Webhook, error) {
	return nil, nil
}

func (f *fakeWebhooks) ListDeliveries(_ context.Context, q cqrs.ListDeliveriesQuery) ([]*models.WebhookDelivery, int, error) {
	var out []*models.WebhookDelivery
	for _, d := range f.deliveries {
		if d.AccountID == q.AccountID && (q.WebhookID == "" || d.WebhookID == q.WebhookID) {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func TestWebhookQueries(t *testing.T) {
	req := require.New(t)
	w, err := models.NewWebhook("whk-1", "acc-1", "https://example.com/hook", "", []string{"*"}, "secret", testNow)
	req.NoError(err)
	svc := NewWebhookQueryService(&fakeWebhooks{
		hooks: map[string]*models.Webhook{"whk-1": w},
		deliveries: []*models.WebhookDelivery{
			{ID: "dlv-1", WebhookID: "whk-1", AccountID: "acc-1", Success: true},
			{ID: "dlv-2", WebhookID: "whk-9", AccountID: "acc-1"},
		},
	})
	ctx := context.Background()

	list, err := svc.ListWebhooks(ctx, cqrs.ListWebhooksQuery{AccountID: "acc-1"})
	req.NoError(err)
	req.NotNil(list)
	req.Empty(list)

	page, err := svc.ListDeliveries(ctx, cqrs.ListDeliveriesQuery{AccountID: "acc-1", WebhookID: "whk-1"})
	req.NoError(err)
	req.Equal(1, page.Total)
	req.Equal("dlv-1", page.Items[0].ID)

	_, err = svc.ListDeliveries(ctx, cqrs.ListDeliveriesQuery{AccountID: "acc-2", WebhookID: "whk-1"})
	req.ErrorIs(err, apperrors.ErrWebhookNotFound)

	view, err := svc.GetWebhook(ctx, cqrs.GetWebhookQuery{AccountID: "acc-1", WebhookID: "whk-1"})
	req.NoError(err)
	req.Equal("https://example.com/hook", view.URL)
}

type fakeAudit struct{ called bool }

func (f *fakeAudit) GetByID(context.Context, string, string) (*models.AuditEntry, error) {
	return nil, apperrors.ErrAuditNotFound
}

func (f *fakeAudit) List(context.Context, cqrs.ListAuditQuery) ([]*models.AuditEntry, int, error) {
	f.called = true
	return []*models.AuditEntry{{ID: "evt-1", Action: models.EventUserCreated}}, 1, nil
}

func TestListAuditEntries(t *testing.T) {
	req := require.New(t)
	store := &fakeAudit{}
	svc := NewAuditQueryService(store)

	from, to := testNow, testNow.Add(-time.Hour)
	_, err := svc.ListAuditEntries(context.Background(), cqrs.ListAuditQuery{AccountID: "acc-1", From: &from, To: &to})
	req.Error(err)
	req.False(store.called)

	res, err := svc.ListAuditEntries(context.Background(), cqrs.ListAuditQuery{AccountID: "acc-1"})
	req.NoError(err)
	req.Equal(1, res.Total)
	req.Equal(cqrs.DefaultPageSize, res.PageSize)
}

type fakeRoles struct{}

func (fakeRoles) GetByID(_ context.Context, accountID, id string) (*models.Role, error) {
	return models.NewAdministratorRole(id, accountID, testNow), nil
}

func (fakeRoles) CountUsers(context.Context, string, string) (int, error) { return 4, nil }

func (fakeRoles) List(context.Context, string) ([]models.RoleView, error) { return nil, nil }

func TestRoleQueries(t *testing.T) {
	req := require.New(t)
	svc := NewRoleQueryService(fakeRoles{})

	view, err := svc.GetRole(context.Background(), cqrs.GetRoleQuery{AccountID: "acc-1", RoleID: "rol-1"})
	req.NoError(err)
	req.Equal(4, view.UserCount)
	req.True(view.IsSystem)

	roles, err := svc.ListRoles(context.Background(), cqrs.ListRolesQuery{AccountID: "acc-1"})
	req.NoError(err)
	req.NotNil(roles)

	tenant := svc.ListPermissions(false)
	req.Len(tenant, len(models.TenantPermissions()))
	req.Len(svc.ListPermissions(true), len(tenant)+1)
}

type staticFlags struct {
	state models.MaintenanceState
	err   error
}

func (f staticFlags) Get(context.Context) (models.MaintenanceState, error) { return f.state, f.err }

func TestGetStatus(t *testing.T) {
	req := require.New(t)
	clk := clock.NewMockClock(testNow)
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })
	svc := NewSystemQueryService("1.2.3", staticFlags{state: models.MaintenanceState{Enabled: true, Message: "upgrading"}}, up, down, clk, logger.Nop())

	clk.Advance(90 * time.Second)
	status := svc.GetStatus(context.Background())
	req.Equal("1.2.3", status.Version)
	req.Equal(int64(90), status.UptimeSeconds)
	req.Equal(statusUp, status.Database)
	req.Equal(statusDown, status.Cache)
	req.True(status.Maintenance)
	req.Equal("upgrading", status.MaintenanceMessage)
}

func TestGetStatus_FlagReadFailureReportsOff(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	svc := NewSystemQueryService("dev", staticFlags{err: errors.New("redis down")}, up, up, clock.NewMockClock(testNow), logger.Nop())
	require.False(t, svc.GetStatus(context.Background()).Maintenance)
}
