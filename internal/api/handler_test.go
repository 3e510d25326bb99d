package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrent-erp/medrent-erp/internal/notify"
	"github.com/medrent-erp/medrent-erp/internal/orders"
	"github.com/medrent-erp/medrent-erp/internal/rbac"
	"github.com/medrent-erp/medrent-erp/internal/shared"
	"github.com/medrent-erp/medrent-erp/internal/workflow"
)

type memRepo struct {
	stored map[string]*orders.Order
}

func (r *memRepo) Get(_ context.Context, name string) (*orders.Order, error) {
	o, ok := r.stored[name]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

func (r *memRepo) List(_ context.Context, _ orders.ListOrdersRequest) ([]orders.Order, int, error) {
	var out []orders.Order
	for _, o := range r.stored {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (r *memRepo) Upsert(_ context.Context, o *orders.Order) error {
	r.stored[o.Name] = o
	return nil
}

type memSource struct {
	order *orders.Order
	err   error
}

func (s *memSource) FetchOrder(_ context.Context, _ string) (*orders.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

type memGateway struct {
	calls []string
}

func (g *memGateway) Invoke(_ context.Context, method string, _ map[string]any) error {
	g.calls = append(g.calls, method)
	return nil
}

type memMessenger struct{}

func (memMessenger) Send(_ context.Context, _, _ string) error { return nil }

type allowAll struct{}

func (allowAll) HasPermission(_ context.Context, _ int64, _ string) (bool, error) {
	return true, nil
}

func (allowAll) EffectivePermissions(_ context.Context, _ int64) ([]string, error) {
	return []string{rbac.PermView, rbac.PermSubmit}, nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveTransition(_, _ string) {}

type apiFixture struct {
	router  http.Handler
	gateway *memGateway
	repo    *memRepo
	source  *memSource
}

func newAPIFixture(t *testing.T, authenticated bool) *apiFixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	order := &orders.Order{
		Name:           "SAL-ORD-2025-00001",
		CustomerName:   "Ravi Kumar",
		CustomerMobile: "9876543210",
		OrderType:      orders.TypeRental,
		Status:         orders.StatusPending,
		DocStatus:      orders.DocStatusSubmitted,
		PerBilled:      40,
	}
	repo := &memRepo{stored: map[string]*orders.Order{order.Name: order}}
	source := &memSource{order: order}
	service := orders.NewService(repo, source, logger)

	gw := &memGateway{}
	engine := workflow.NewEngine(gw, service, memMessenger{}, nil, notify.NewTemplates("8884880013"), logger)

	handler := NewHandler(service, engine, allowAll{}, nil, nil, noopMetrics{}, logger)

	r := chi.NewRouter()
	if authenticated {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := shared.ContextWithSession(req.Context(), &shared.Session{UserID: 1, FullName: "Ops"})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	handler.MountRoutes(r, rbac.Middleware{Service: allowAll{}, Logger: logger})

	return &apiFixture{router: r, gateway: gw, repo: repo, source: source}
}

func TestActionsEndpoint(t *testing.T) {
	f := newAPIFixture(t, true)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/orders/SAL-ORD-2025-00001/actions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status  string                `json:"status"`
		Actions []workflow.Descriptor `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Pending", body.Status)

	var found bool
	for _, a := range body.Actions {
		if a.Action == workflow.ActionApprove {
			found = true
		}
	}
	assert.True(t, found, "approve should be offered for a pending rental")
}

func TestActionsEndpointLockedOrder(t *testing.T) {
	f := newAPIFixture(t, true)
	f.repo.stored["SAL-ORD-2025-00001"].Status = orders.StatusRentalCompleted

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/orders/SAL-ORD-2025-00001/actions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Locked  bool                  `json:"locked"`
		Actions []workflow.Descriptor `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Locked)
	assert.Empty(t, body.Actions)
}

func TestExecuteTransition(t *testing.T) {
	f := newAPIFixture(t, true)

	body := strings.NewReader(`{"confirmed": true, "values": {"notify_through_whatsapp": false}}`)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("POST", "/orders/SAL-ORD-2025-00001/actions/approve", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var res workflow.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, workflow.OutcomeApplied, res.Outcome)
	assert.Equal(t, []string{workflow.MethodApproveRental}, f.gateway.calls)
}

func TestExecuteDeclined(t *testing.T) {
	f := newAPIFixture(t, true)

	body := strings.NewReader(`{"confirmed": false}`)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("POST", "/orders/SAL-ORD-2025-00001/actions/approve", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var res workflow.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, workflow.OutcomeCancelled, res.Outcome)
	assert.Empty(t, f.gateway.calls)
}

func TestExecuteUnavailableAction(t *testing.T) {
	f := newAPIFixture(t, true)

	body := strings.NewReader(`{"confirmed": true}`)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("POST", "/orders/SAL-ORD-2025-00001/actions/dispatch", body))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.gateway.calls)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	f := newAPIFixture(t, false)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/orders/SAL-ORD-2025-00001", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownOrderIs404(t *testing.T) {
	f := newAPIFixture(t, true)
	f.repo.stored = map[string]*orders.Order{}
	f.source.err = orders.ErrNotFound

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/orders/NO-SUCH/actions", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
