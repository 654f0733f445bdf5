package devserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doroshop/dsadmin/internal/api"
	"github.com/doroshop/dsadmin/internal/console"
	"github.com/doroshop/dsadmin/internal/database/repository"
	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/logging"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/workflow"
)

const (
	secret        = "dev-secret"
	pendingRefund = "64b7f0c2a1b2c3d4e5f60101"
)

var fixedNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

type env struct {
	srv    *Server
	http   *httptest.Server
	client *api.Client
	res    api.Resources
}

func newEnv(t *testing.T, opts Options) *env {
	t.Helper()
	repo := repository.NewMemoryDocuments()
	seed, err := DefaultSeed()
	require.NoError(t, err)
	require.NoError(t, seed.Apply(context.Background(), repo, fixedNow))

	opts.Secret = secret
	opts.Now = func() time.Time { return fixedNow }
	srv := New(repo, logging.Nop(), opts)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	tok, err := MintToken(secret, "64b7f0c2a1b2c3d4e5f6a999", "admin@example.test", time.Hour, fixedNow)
	require.NoError(t, err)
	client := api.NewClient(api.Options{
		BaseURL: hs.URL + "/api",
		HTTP:    hs.Client(),
		Tokens:  api.StaticToken(tok),
		Logger:  logging.Nop(),
	})
	return &env{srv: srv, http: hs, client: client, res: api.NewResources(client)}
}

func TestRequiresAdminToken(t *testing.T) {
	e := newEnv(t, Options{})

	anon := api.NewClient(api.Options{BaseURL: e.http.URL + "/api", HTTP: e.http.Client(), Logger: logging.Nop()})
	_, err := api.NewResources(anon).Plans.List(context.Background(), nil)
	require.Equal(t, http.StatusUnauthorized, api.StatusOf(err))

	expired, err := MintToken(secret, "u", "", time.Minute, fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	stale := api.NewClient(api.Options{BaseURL: e.http.URL + "/api", HTTP: e.http.Client(), Tokens: api.StaticToken(expired), Logger: logging.Nop()})
	_, err = api.NewResources(stale).Plans.List(context.Background(), nil)
	require.Equal(t, http.StatusUnauthorized, api.StatusOf(err))

	plans, err := e.res.Plans.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, plans, 2)
}

func TestListsDecodeBothReferenceForms(t *testing.T) {
	e := newEnv(t, Options{})
	ctx := context.Background()

	cats, err := e.res.Categories.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, cats, 4)
	require.Equal(t, "64b7f0c2a1b2c3d4e5f6c001", domain.RefID(cats[1].Parent))
	require.False(t, cats[1].Parent.Populated())

	refunds, err := e.res.Refunds.List(ctx, url.Values{"status": {"pending"}})
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	require.True(t, refunds[0].Customer.Populated())
	require.Equal(t, "Maria Santos", refunds[0].CustomerName())
	require.Equal(t, "Tagum Fresh Produce", refunds[0].Seller.Label())
	require.Equal(t, "#E5F69A01", refunds[0].OrderNumber())

	subs, err := e.res.Subscriptions.List(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "Premium", subs[0].Plan.Label())
	require.Equal(t, "64b7f0c2a1b2c3d4e5f6e002", domain.RefID(subs[0].Plan))
}

func TestRefundTransitions(t *testing.T) {
	e := newEnv(t, Options{})
	ctx := context.Background()

	_, err := e.res.Refunds.Process(ctx, pendingRefund)
	require.Equal(t, http.StatusBadRequest, api.StatusOf(err))

	_, err = e.res.Refunds.Reject(ctx, pendingRefund, " ")
	require.Equal(t, http.StatusBadRequest, api.StatusOf(err))

	r, err := e.res.Refunds.Approve(ctx, pendingRefund, "ok")
	require.NoError(t, err)
	require.Equal(t, domain.RefundApproved, r.Status)
	require.Equal(t, "ok", r.AdminNote)

	_, err = e.res.Refunds.Approve(ctx, pendingRefund, "")
	require.Equal(t, http.StatusBadRequest, api.StatusOf(err))

	r, err = e.res.Refunds.Process(ctx, pendingRefund)
	require.NoError(t, err)
	require.Equal(t, domain.RefundProcessed, r.Status)
	require.NotNil(t, r.ProcessedAt)

	_, err = e.res.Refunds.Approve(ctx, "64b7f0c2a1b2c3d4e5f6ffff", "")
	require.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestApprovalWithFailingPayoutLeavesRefundApproved(t *testing.T) {
	e := newEnv(t, Options{FailProcess: true})
	rec := &notify.Recorder{}
	c := console.New(console.FromAPI(e.res), rec, logging.Nop())
	ctx := context.Background()
	require.NoError(t, c.LoadAll(ctx))

	target, ok := c.Refunds.Find(pendingRefund)
	require.True(t, ok)
	m := c.Refunds.Modal()
	require.NoError(t, m.OpenAction(target, console.ActionApprove))

	res, dispatched := m.SubmitAndWait(ctx)
	require.True(t, dispatched)
	var stepErr *workflow.StepError
	require.ErrorAs(t, res.Err, &stepErr)
	require.Equal(t, "process", stepErr.Step)
	require.Equal(t, http.StatusBadGateway, api.StatusOf(res.Err))
	require.True(t, res.Refreshed)
	require.NoError(t, res.RefreshErr)

	after, ok := c.Refunds.Find(pendingRefund)
	require.True(t, ok)
	require.Equal(t, domain.RefundApproved, after.Status)

	last, _ := rec.Last()
	require.Equal(t, notify.Error, last.Severity)
	require.Contains(t, last.Message, "Payout provider unavailable")
}

func TestReassignPlanByCodeAndID(t *testing.T) {
	e := newEnv(t, Options{})
	ctx := context.Background()
	wf := &workflow.Orchestrator{Subscriptions: e.res.Subscriptions, Log: logging.Nop()}

	require.NoError(t, wf.ReassignPlan(ctx, "64b7f0c2a1b2c3d4e5f6f001", "basic"))
	subs, err := e.res.Subscriptions.List(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "64b7f0c2a1b2c3d4e5f6e001", domain.RefID(subs[0].Plan))

	require.NoError(t, wf.ReassignPlan(ctx, "64b7f0c2a1b2c3d4e5f6f001", "64b7f0c2a1b2c3d4e5f6e002"))
	subs, err = e.res.Subscriptions.List(ctx, url.Values{"status": {"active"}})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "Premium", subs[0].Plan.Label())

	err = wf.ReassignPlan(ctx, "64b7f0c2a1b2c3d4e5f6f001", "platinum")
	require.Equal(t, http.StatusBadRequest, api.StatusOf(err))
}

func TestCreateCategoryMultipart(t *testing.T) {
	e := newEnv(t, Options{})
	ctx := context.Background()
	draft := domain.CategoryDraft{Name: "Mangoes", ParentID: "64b7f0c2a1b2c3d4e5f6c002", IsActive: true}

	created, err := e.res.Categories.Create(ctx, draft.Payload(), &api.Upload{Filename: "mango.png", Content: strings.NewReader("png")})
	require.NoError(t, err)
	require.True(t, domain.IsObjectID(created.ID))
	require.Equal(t, "/uploads/"+created.ID+"/mango.png", created.Image)
	require.Equal(t, "64b7f0c2a1b2c3d4e5f6c002", domain.RefID(created.Parent))
	require.True(t, created.IsActive)

	_, err = e.res.Categories.Update(ctx, created.ID, map[string]any{"parentCategory": created.ID})
	require.Equal(t, http.StatusBadRequest, api.StatusOf(err))

	// c001 is above the new category, so it cannot become its child
	_, err = e.res.Categories.Update(ctx, "64b7f0c2a1b2c3d4e5f6c001", map[string]any{"parentCategory": created.ID})
	require.Equal(t, http.StatusBadRequest, api.StatusOf(err))
	require.ErrorContains(t, err, "own subcategory")

	moved, err := e.res.Categories.Update(ctx, created.ID, domain.CategoryDraft{Name: "Mangoes"}.Payload())
	require.NoError(t, err)
	require.Empty(t, domain.RefID(moved.Parent))
}

func TestPlanValidationAndUniqueness(t *testing.T) {
	e := newEnv(t, Options{})
	ctx := context.Background()

	_, err := e.res.Plans.Create(ctx, map[string]any{"code": "basic", "name": "Basic again"}, nil)
	require.Equal(t, http.StatusConflict, api.StatusOf(err))

	_, err = e.res.Plans.Create(ctx, map[string]any{"code": "gold", "name": "Gold", "price": -5.0}, nil)
	require.Equal(t, http.StatusBadRequest, api.StatusOf(err))

	p, err := e.res.Plans.Create(ctx, domain.PlanDraft{Code: "gold", Name: "Gold", Price: "999", Discount: "120", IsActive: true}.Payload(), nil)
	require.NoError(t, err)
	require.Equal(t, 120.0, p.DiscountPercent)

	require.NoError(t, e.res.Plans.Delete(ctx, p.ID))
	err = e.res.Plans.Delete(ctx, p.ID)
	require.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t, Options{})
	_, err := e.res.Plans.List(context.Background(), nil)
	require.NoError(t, err)

	resp, err := e.http.Client().Get(e.http.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = e.http.Client().Get(e.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "dsadmin_dev_http_requests_total")
	require.Contains(t, string(body), `route="/api/plans`)
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := repository.NewMemoryDocuments()
	seed, err := DefaultSeed()
	require.NoError(t, err)
	require.NoError(t, seed.Apply(context.Background(), repo, fixedNow))
	require.NoError(t, seed.Apply(context.Background(), repo, fixedNow))
	n, err := repo.Count(context.Background(), colRefunds)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	_, err = ParseSeed([]byte("plans:\n  - code: basic\n"))
	require.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MintToken(secret, "sub", "a@b.test", time.Hour, fixedNow)
	require.NoError(t, err)
	claims, err := VerifyToken(secret, tok, fixedNow.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "sub", claims.Subject)

	_, err = VerifyToken("other", tok, fixedNow)
	require.Error(t, err)
	_, err = MintToken("", "sub", "", time.Hour, fixedNow)
	require.Error(t, err)
}
