package command

import (
	"context"
	"strings"
	"time"

	"github.com/startupstarter/admin/admin-service/internal/repository"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/events"
	"github.com/startupstarter/admin/shared/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClock() *clock.MockClock { return clock.NewMockClock(testNow) }

type fakePublisher struct {
	accountIDs []string
	actorIDs   []string
	events     []models.DomainEvent
}

func (p *fakePublisher) PublishDomainEvents(_ context.Context, accountID, actorID string, evts []models.DomainEvent) {
	for range evts {
		p.accountIDs = append(p.accountIDs, accountID)
		p.actorIDs = append(p.actorIDs, actorID)
	}
	p.events = append(p.events, evts...)
}

func (p *fakePublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func storeKey(accountID, id string) string { return accountID + "/" + id }

// ---------- accounts ----------

type fakeAccounts struct {
	byID    map[string]*models.Account
	roles   []*models.Role
	users   []*models.User
	deleted map[string]time.Time
	err     error
}

func newFakeAccounts(accounts ...*models.Account) *fakeAccounts {
	f := &fakeAccounts{byID: map[string]*models.Account{}, deleted: map[string]time.Time{}}
	for _, a := range accounts {
		a.PullEvents()
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) CreateWithOwner(_ context.Context, a *models.Account, admin *models.Role, owner *models.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Slug == a.Slug {
			return apperrors.ErrSlugTaken
		}
	}
	cp := *a
	cp.AggregateRoot = models.AggregateRoot{}
	f.byID[a.ID] = &cp
	f.roles = append(f.roles, admin)
	f.users = append(f.users, owner)
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	cp := *a
	cp.AggregateRoot = models.AggregateRoot{}
	return &cp, nil
}

func (f *fakeAccounts) Update(_ context.Context, a *models.Account) error {
	if _, ok := f.byID[a.ID]; !ok {
		return apperrors.ErrAccountNotFound
	}
	cp := *a
	cp.AggregateRoot = models.AggregateRoot{}
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeAccounts) Delete(_ context.Context, id string, at time.Time) error {
	if _, ok := f.byID[id]; !ok {
		return apperrors.ErrAccountNotFound
	}
	delete(f.byID, id)
	f.deleted[id] = at
	return nil
}

type fakeAccountViews struct {
	views       map[string]*models.AccountView
	invalidated []string
}

func newFakeAccountViews() *fakeAccountViews {
	return &fakeAccountViews{views: map[string]*models.AccountView{}}
}

func (f *fakeAccountViews) CacheAccountView(_ context.Context, v *models.AccountView) {
	f.views[v.ID] = v
}
func (f *fakeAccountViews) InvalidateAccountView(_ context.Context, id string) {
	delete(f.views, id)
	f.invalidated = append(f.invalidated, id)
}

// ---------- users ----------

type fakeUsers struct {
	byKey   map[string]*models.User
	updates int
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byKey: map[string]*models.User{}}
	for _, u := range users {
		u.PullEvents()
		f.byKey[storeKey(u.AccountID, u.ID)] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	for _, existing := range f.byKey {
		if existing.AccountID == u.AccountID && strings.EqualFold(existing.Email, u.Email) {
			return apperrors.ErrEmailTaken
		}
	}
	cp := *u
	cp.AggregateRoot = models.AggregateRoot{}
	f.byKey[storeKey(u.AccountID, u.ID)] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, accountID, id string) (*models.User, error) {
	u, ok := f.byKey[storeKey(accountID, id)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	cp.AggregateRoot = models.AggregateRoot{}
	return &cp, nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	k := storeKey(u.AccountID, u.ID)
	if _, ok := f.byKey[k]; !ok {
		return apperrors.ErrUserNotFound
	}
	cp := *u
	cp.AggregateRoot = models.AggregateRoot{}
	f.byKey[k] = &cp
	f.updates++
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, accountID, id string, _ time.Time) error {
	k := storeKey(accountID, id)
	if _, ok := f.byKey[k]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(f.byKey, k)
	return nil
}

type fakeUserViews struct {
	views       map[string]*models.UserView
	invalidated []string
}

func newFakeUserViews() *fakeUserViews { return &fakeUserViews{views: map[string]*models.UserView{}} }

func (f *fakeUserViews) CacheUserView(_ context.Context, v *models.UserView) {
	f.views[storeKey(v.AccountID, v.ID)] = v
}

func (f *fakeUserViews) InvalidateUserView(_ context.Context, accountID, userID string) {
	delete(f.views, storeKey(accountID, userID))
	f.invalidated = append(f.invalidated, userID)
}

// ---------- roles ----------

type fakeRoles struct {
	byKey map[string]*models.Role
	usage map[string]int
}

func newFakeRoles(roles ...*models.Role) *fakeRoles {
	f := &fakeRoles{byKey: map[string]*models.Role{}, usage: map[string]int{}}
	for _, r := range roles {
		r.PullEvents()
		f.byKey[storeKey(r.AccountID, r.ID)] = r
	}
	return f
}

func (f *fakeRoles) Create(_ context.Context, r *models.Role) error {
	for _, existing := range f.byKey {
		if existing.AccountID == r.AccountID && strings.EqualFold(existing.Name, r.Name) {
			return apperrors.ErrRoleNameTaken
		}
	}
	cp := *r
	cp.AggregateRoot = models.AggregateRoot{}
	f.byKey[storeKey(r.AccountID, r.ID)] = &cp
	return nil
}

func (f *fakeRoles) GetByID(_ context.Context, accountID, id string) (*models.Role, error) {
	r, ok := f.byKey[storeKey(accountID, id)]
	if !ok {
		return nil, apperrors.ErrRoleNotFound
	}
	cp := *r
	cp.AggregateRoot = models.AggregateRoot{}
	return &cp, nil
}

func (f *fakeRoles) GetByName(_ context.Context, accountID, name string) (*models.Role, error) {
	for _, r := range f.byKey {
		if r.AccountID == accountID && strings.EqualFold(r.Name, name) {
			cp := *r
			cp.AggregateRoot = models.AggregateRoot{}
			return &cp, nil
		}
	}
	return nil, apperrors.ErrRoleNotFound
}

func (f *fakeRoles) Update(_ context.Context, r *models.Role) error {
	cp := *r
	cp.AggregateRoot = models.AggregateRoot{}
	f.byKey[storeKey(r.AccountID, r.ID)] = &cp
	return nil
}

func (f *fakeRoles) Delete(_ context.Context, accountID, id string) error {
	delete(f.byKey, storeKey(accountID, id))
	return nil
}

func (f *fakeRoles) CountUsers(_ context.Context, _, roleID string) (int, error) {
	return f.usage[roleID], nil
}

func (f *fakeRoles) MissingIDs(_ context.Context, accountID string, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		if _, ok := f.byKey[storeKey(accountID, id)]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ---------- workflows ----------

type fakeWorkflows struct {
	byKey   map[string]*models.Workflow
	pending map[string]int
}

func newFakeWorkflows(wfs ...*models.Workflow) *fakeWorkflows {
	f := &fakeWorkflows{byKey: map[string]*models.Workflow{}, pending: map[string]int{}}
	for _, w := range wfs {
		w.PullEvents()
		f.byKey[storeKey(w.AccountID, w.ID)] = w
	}
	return f
}

func (f *fakeWorkflows) Create(_ context.Context, w *models.Workflow) error {
	f.store(w)
	return nil
}

func (f *fakeWorkflows) Update(_ context.Context, w *models.Workflow) error {
	f.store(w)
	return nil
}

func (f *fakeWorkflows) store(w *models.Workflow) {
	if w.IsDefault {
		for _, other := range f.byKey {
			if other.AccountID == w.AccountID {
				other.IsDefault = false
			}
		}
	}
	cp := *w
	cp.AggregateRoot = models.AggregateRoot{}
	f.byKey[storeKey(w.AccountID, w.ID)] = &cp
}

func (f *fakeWorkflows) Delete(_ context.Context, accountID, id string) error {
	delete(f.byKey, storeKey(accountID, id))
	return nil
}

func (f *fakeWorkflows) GetByID(_ context.Context, accountID, id string) (*models.Workflow, error) {
	w, ok := f.byKey[storeKey(accountID, id)]
	if !ok {
		return nil, apperrors.ErrWorkflowNotFound
	}
	cp := *w
	cp.AggregateRoot = models.AggregateRoot{}
	return &cp, nil
}

func (f *fakeWorkflows) GetDefault(_ context.Context, accountID string) (*models.Workflow, error) {
	for _, w := range f.byKey {
		if w.AccountID == accountID && w.IsDefault {
			cp := *w
			cp.AggregateRoot = models.AggregateRoot{}
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWorkflows) CountPending(_ context.Context, _, id string) (int, error) {
	return f.pending[id], nil
}

// ---------- content ----------

type fakeContent struct {
	byKey     map[string]*models.Content
	approvals []*models.ContentApproval
}

func newFakeContent(items ...*models.Content) *fakeContent {
	f := &fakeContent{byKey: map[string]*models.Content{}}
	for _, c := range items {
		c.PullEvents()
		f.byKey[storeKey(c.AccountID, c.ID)] = c
	}
	return f
}

func (f *fakeContent) Create(_ context.Context, c *models.Content) error {
	for _, existing := range f.byKey {
		if existing.AccountID == c.AccountID && existing.Slug == c.Slug {
			return apperrors.ErrSlugTaken
		}
	}
	cp := *c
	cp.AggregateRoot = models.AggregateRoot{}
	f.byKey[storeKey(c.AccountID, c.ID)] = &cp
	return nil
}

func (f *fakeContent) Save(_ context.Context, c *models.Content, approval *models.ContentApproval) error {
	k := storeKey(c.AccountID, c.ID)
	if _, ok := f.byKey[k]; !ok {
		return apperrors.ErrContentNotFound
	}
	if c.DeletedAt != nil {
		delete(f.byKey, k)
	} else {
		cp := *c
		cp.AggregateRoot = models.AggregateRoot{}
		f.byKey[k] = &cp
	}
	if approval != nil {
		f.approvals = append(f.approvals, approval)
	}
	return nil
}

func (f *fakeContent) GetByID(_ context.Context, accountID, id string) (*models.Content, error) {
	c, ok := f.byKey[storeKey(accountID, id)]
	if !ok {
		return nil, apperrors.ErrContentNotFound
	}
	cp := *c
	cp.AggregateRoot = models.AggregateRoot{}
	return &cp, nil
}

// ---------- media ----------

type fakeMedia struct {
	byKey map[string]*models.Media
	err   error
}

func newFakeMedia() *fakeMedia { return &fakeMedia{byKey: map[string]*models.Media{}} }

func (f *fakeMedia) Create(_ context.Context, m *models.Media) error {
	if f.err != nil {
		return f.err
	}
	f.byKey[storeKey(m.AccountID, m.ID)] = m
	return nil
}

func (f *fakeMedia) GetByID(_ context.Context, accountID, id string) (*models.Media, error) {
	m, ok := f.byKey[storeKey(accountID, id)]
	if !ok {
		return nil, apperrors.ErrMediaNotFound
	}
	cp := *m
	cp.AggregateRoot = models.AggregateRoot{}
	return &cp, nil
}

func (f *fakeMedia) Delete(_ context.Context, accountID, id string) error {
	delete(f.byKey, storeKey(accountID, id))
	return nil
}

type fakeBlobs struct {
	data    map[string][]byte
	deleted []string
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{data: map[string][]byte{}} }

func (f *fakeBlobs) Put(_ context.Context, k string, data []byte) error {
	f.data[k] = data
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, k string) error {
	delete(f.data, k)
	f.deleted = append(f.deleted, k)
	return nil
}

// ---------- api keys ----------

type fakeKeys struct {
	byID    map[string]*models.APIKey
	touched []string
}

func newFakeKeys() *fakeKeys { return &fakeKeys{byID: map[string]*models.APIKey{}} }

func (f *fakeKeys) Create(_ context.Context, k *models.APIKey) error {
	cp := *k
	cp.AggregateRoot = models.AggregateRoot{}
	f.byID[k.ID] = &cp
	return nil
}

func (f *fakeKeys) GetByID(_ context.Context, accountID, id string) (*models.APIKey, error) {
	k, ok := f.byID[id]
	if !ok || k.AccountID != accountID {
		return nil, apperrors.ErrAPIKeyNotFound
	}
	cp := *k
	cp.AggregateRoot = models.AggregateRoot{}
	return &cp, nil
}

func (f *fakeKeys) GetByPrefix(_ context.Context, prefix string) (*models.APIKey, error) {
	for _, k := range f.byID {
		if k.Prefix == prefix {
			cp := *k
			cp.AggregateRoot = models.AggregateRoot{}
			return &cp, nil
		}
	}
	return nil, apperrors.ErrAPIKeyNotFound
}

func (f *fakeKeys) Revoke(_ context.Context, k *models.APIKey) error {
	cp := *k
	cp.AggregateRoot = models.AggregateRoot{}
	f.byID[k.ID] = &cp
	return nil
}

func (f *fakeKeys) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	f.byID[id].LastUsedAt = &at
	f.touched = append(f.touched, id)
	return nil
}

// ---------- webhooks ----------

type fakeWebhooks struct {
	byKey map[string]*models.Webhook
}

func newFakeWebhooks() *fakeWebhooks { return &fakeWebhooks{byKey: map[string]*models.Webhook{}} }

func (f *fakeWebhooks) Create(_ context.Context, w *models.Webhook) error {
	cp := *w
	cp.AggregateRoot = models.AggregateRoot{}
	f.byKey[storeKey(w.AccountID, w.ID)] = &cp
	return nil
}

func (f *fakeWebhooks) Update(_ context.Context, w *models.Webhook) error {
	cp := *w
	cp.AggregateRoot = models.AggregateRoot{}
	f.byKey[storeKey(w.AccountID, w.ID)] = &cp
	return nil
}

func (f *fakeWebhooks) Delete(_ context.Context, accountID, id string) error {
	delete(f.byKey, storeKey(accountID, id))
	return nil
}

func (f *fakeWebhooks) GetByID(_ context.Context, accountID, id string) (*models.Webhook, error) {
	w, ok := f.byKey[storeKey(accountID, id)]
	if !ok {
		return nil, apperrors.ErrWebhookNotFound
	}
	cp := *w
	cp.AggregateRoot = models.AggregateRoot{}
	return &cp, nil
}

type fakeDeliverer struct {
	sent []events.Event
}

func (f *fakeDeliverer) Deliver(_ context.Context, w *models.Webhook, evt events.Event) (*models.WebhookDelivery, error) {
	f.sent = append(f.sent, evt)
	return &models.WebhookDelivery{
		ID: "dlv-1", WebhookID: w.ID, AccountID: w.AccountID, EventID: evt.ID, EventType: evt.Type,
		StatusCode: 200, Success: true, CreatedAt: testNow,
	}, nil
}

// ---------- system ----------

type fakeFlags struct {
	state models.MaintenanceState
}

func (f *fakeFlags) Set(_ context.Context, s models.MaintenanceState) error {
	f.state = s
	return nil
}

type fakeFlusher struct {
	patterns []string
}

func (f *fakeFlusher) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	f.patterns = append(f.patterns, pattern)
	return 3, nil
}

type fakePurger struct {
	cutoff time.Time
	result *repository.PurgeResult
}

func (f *fakePurger) Purge(_ context.Context, cutoff time.Time) (*repository.PurgeResult, error) {
	f.cutoff = cutoff
	return f.result, nil
}
