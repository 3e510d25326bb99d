// Package api serves the order and workflow HTTP endpoints.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medrent-erp/medrent-erp/internal/gateway"
	"github.com/medrent-erp/medrent-erp/internal/orders"
	"github.com/medrent-erp/medrent-erp/internal/platform/httpx"
	"github.com/medrent-erp/medrent-erp/internal/rbac"
	"github.com/medrent-erp/medrent-erp/internal/shared"
	"github.com/medrent-erp/medrent-erp/internal/workflow"
)

// TransitionMetrics counts transition attempts for the dashboard.
type TransitionMetrics interface {
	ObserveTransition(action, outcome string)
}

// PermissionChecker resolves a single permission for a user.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID int64, perm string) (bool, error)
}

// Handler serves the order endpoints.
type Handler struct {
	service *orders.Service
	engine  *workflow.Engine
	perms   PermissionChecker
	idem    *shared.IdempotencyStore
	audit   *shared.AuditLogger
	metrics TransitionMetrics
	logger  *slog.Logger
}

// NewHandler constructs the handler.
func NewHandler(service *orders.Service, engine *workflow.Engine, perms PermissionChecker,
	idem *shared.IdempotencyStore, audit *shared.AuditLogger, metrics TransitionMetrics,
	logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		engine:  engine,
		perms:   perms,
		idem:    idem,
		audit:   audit,
		metrics: metrics,
		logger:  logger,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

func parseListRequest(r *http.Request) (orders.ListOrdersRequest, error) {
	var req orders.ListOrdersRequest
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		s := orders.Status(v)
		req.Status = &s
	}
	if v := q.Get("order_type"); v != "" {
		t := orders.OrderType(v)
		req.OrderType = &t
	}
	if v := q.Get("customer"); v != "" {
		req.Customer = &v
	}
	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return req, errors.New("date_from must be YYYY-MM-DD")
		}
		req.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return req, errors.New("date_to must be YYYY-MM-DD")
		}
		req.DateTo = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("limit must be an integer")
		}
		req.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("offset must be an integer")
		}
		req.Offset = n
	}
	return req, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	o, err := h.service.Get(r.Context(), name)
	if err != nil {
		h.respondGetError(w, name, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) respondGetError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order "+name+" not found")
	case errors.Is(err, gateway.ErrCallFailed):
		httpx.Problem(w, http.StatusBadGateway, "Gateway Error", "document server unavailable")
	default:
		h.logger.Error("get order", slog.String("order", name), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// actions returns the transitions the order currently offers to this user.
func (h *Handler) actions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	o, err := h.service.Get(r.Context(), name)
	if err != nil {
		h.respondGetError(w, name, err)
		return
	}
	canSubmit, err := h.canSubmit(r)
	if err != nil {
		h.logger.Error("resolve submit permission", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	actions := h.engine.Available(o, canSubmit)
	if actions == nil {
		actions = []workflow.Descriptor{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"order":   o.Name,
		"status":  o.Status,
		"locked":  o.IsTerminal(),
		"actions": actions,
	})
}

func (h *Handler) canSubmit(r *http.Request) (bool, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return false, nil
	}
	return h.perms.HasPermission(r.Context(), sess.UserID, rbac.PermSubmit)
}

type executeRequest struct {
	Confirmed bool            `json:"confirmed"`
	Values    workflow.Values `json:"values"`
}

// execute runs one workflow transition. An optional Idempotency-Key header
// suppresses accidental replays at the HTTP boundary; the engine itself
// carries no de-duplication.
func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	action := workflow.Action(chi.URLParam(r, "action"))

	var req executeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if err := h.idem.CheckAndInsert(r.Context(), idemKey, "orders"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate", "request already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
	}

	o, err := h.service.Get(r.Context(), name)
	if err != nil {
		h.releaseKey(r.Context(), idemKey)
		h.respondGetError(w, name, err)
		return
	}

	canSubmit, err := h.canSubmit(r)
	if err != nil {
		h.releaseKey(r.Context(), idemKey)
		h.logger.Error("resolve submit permission", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	res, err := h.engine.Execute(r.Context(), o, action, workflow.ExecuteRequest{
		Confirmed: req.Confirmed,
		CanSubmit: canSubmit,
		Values:    req.Values,
	})
	if err != nil {
		h.releaseKey(r.Context(), idemKey)
		h.metrics.ObserveTransition(string(action), "error")
		h.respondExecuteError(w, action, err)
		return
	}

	h.metrics.ObserveTransition(string(action), string(res.Outcome))
	if res.Outcome == workflow.OutcomeApplied {
		h.recordAudit(r, name, action, res)
	} else {
		// A declined confirmation made no call; the key should not burn.
		h.releaseKey(r.Context(), idemKey)
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) respondExecuteError(w http.ResponseWriter, action workflow.Action, err error) {
	var inputErr *workflow.InputError
	switch {
	case errors.Is(err, workflow.ErrActionNotAvailable):
		httpx.Problem(w, http.StatusConflict, "Action Not Available",
			"action "+string(action)+" is not available for this order")
	case errors.As(err, &inputErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", inputErr.Error())
	case errors.Is(err, gateway.ErrCallFailed):
		httpx.Problem(w, http.StatusBadGateway, "Gateway Error", "document server rejected the transition")
	default:
		h.logger.Error("execute transition", slog.String("action", string(action)), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) releaseKey(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.idem.Delete(ctx, key); err != nil {
		h.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}

func (h *Handler) recordAudit(r *http.Request, name string, action workflow.Action, res *workflow.Result) {
	sess := shared.SessionFromContext(r.Context())
	var actor int64
	if sess != nil {
		actor = sess.UserID
	}
	meta := map[string]any{
		"notification_queued": res.NotificationQueued,
	}
	if res.NotificationError != "" {
		meta["notification_error"] = res.NotificationError
	}
	if res.Order != nil {
		meta["status"] = res.Order.Status
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actor,
		Action:   "orders." + string(action),
		Entity:   "sales_order",
		EntityID: name,
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.String("order", name), slog.Any("error", err))
	}
}
