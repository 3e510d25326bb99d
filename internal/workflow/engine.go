// Package workflow drives order status transitions. The engine decides which
// actions an order currently offers and executes a chosen one against the
// document server. It never computes the next status itself; after every
// call the canonical record is re-fetched and the local mirror replaced.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/medrent-erp/medrent-erp/internal/notify"
	"github.com/medrent-erp/medrent-erp/internal/orders"
)

// ErrActionNotAvailable is returned when the requested action is unknown or
// its guard does not hold for the order's current state.
var ErrActionNotAvailable = errors.New("action not available for this order")

// InputError reports operator-supplied values that fail the transition's
// field schema.
type InputError struct {
	Problems []string
}

func (e *InputError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

// Gateway invokes named actions on the document server.
type Gateway interface {
	Invoke(ctx context.Context, method string, args map[string]any) error
}

// Reloader re-fetches the canonical order record after a transition.
type Reloader interface {
	Reload(ctx context.Context, name string) (*orders.Order, error)
}

// Messenger queues an outbound WhatsApp message to a customer.
type Messenger interface {
	Send(ctx context.Context, mobile, message string) error
}

// Mailer queues an outbound email to a customer.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// FieldDescriptor is the client-facing view of one input field with its
// default resolved against the order.
type FieldDescriptor struct {
	Name       string    `json:"name"`
	Label      string    `json:"label"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required"`
	ReadOnly   bool      `json:"read_only,omitempty"`
	Options    []string  `json:"options,omitempty"`
	RequiredIf string    `json:"required_if,omitempty"`
	Default    any       `json:"default,omitempty"`
}

// Descriptor is one offered action with everything a client needs to render
// its confirmation and input dialog.
type Descriptor struct {
	Action   Action            `json:"action"`
	Label    string            `json:"label"`
	Confirm  string            `json:"confirm"`
	Terminal bool              `json:"terminal,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Fields   []FieldDescriptor `json:"fields,omitempty"`
}

// Outcome distinguishes an applied transition from a declined confirmation.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeCancelled Outcome = "cancelled"
)

// Result reports what an Execute call did. NotificationError and ReloadError
// are non-fatal: the transition itself was already applied when either is set.
type Result struct {
	Action             Action        `json:"action"`
	Outcome            Outcome       `json:"outcome"`
	Message            string        `json:"message,omitempty"`
	Warnings           []string      `json:"warnings,omitempty"`
	NotificationQueued bool          `json:"notification_queued"`
	NotificationError  string        `json:"notification_error,omitempty"`
	EmailQueued        bool          `json:"email_queued,omitempty"`
	ReloadError        string        `json:"reload_error,omitempty"`
	Order              *orders.Order `json:"order,omitempty"`
}

// ExecuteRequest carries the operator's decisions for one transition.
type ExecuteRequest struct {
	Confirmed bool
	CanSubmit bool
	Values    Values
}

// Engine evaluates and executes workflow transitions.
type Engine struct {
	gateway   Gateway
	reloader  Reloader
	messenger Messenger
	mailer    Mailer
	table     []Transition
	logger    *slog.Logger
}

// NewEngine constructs the workflow engine with its collaborators. The mailer
// may be nil; email side-channels are then skipped.
func NewEngine(gw Gateway, rel Reloader, msg Messenger, mailer Mailer, tpl *notify.Templates, logger *slog.Logger) *Engine {
	return &Engine{
		gateway:   gw,
		reloader:  rel,
		messenger: msg,
		mailer:    mailer,
		table:     Table(tpl),
		logger:    logger,
	}
}

// actionable reports whether the order can offer transitions at all.
// Draft and cancelled documents have no workflow, and a completed order
// is locked for good.
func actionable(o *orders.Order) bool {
	return o.IsSubmitted() && !o.IsTerminal()
}

// Available returns the actions the order offers right now, in display order.
func (e *Engine) Available(o *orders.Order, canSubmit bool) []Descriptor {
	if !actionable(o) {
		return nil
	}
	var out []Descriptor
	for i := range e.table {
		t := &e.table[i]
		if t.RequiresSubmit && !canSubmit {
			continue
		}
		if !t.Guard(o) {
			continue
		}
		out = append(out, e.describe(t, o))
	}
	return out
}

func (e *Engine) describe(t *Transition, o *orders.Order) Descriptor {
	d := Descriptor{
		Action:   t.Action,
		Label:    t.Label,
		Confirm:  t.Confirm,
		Terminal: t.Terminal,
	}
	if t.Warnings != nil {
		d.Warnings = t.Warnings(o)
	}
	for _, f := range t.Fields {
		fd := FieldDescriptor{
			Name:       f.Name,
			Label:      f.Label,
			Type:       f.Type,
			Required:   f.Required,
			ReadOnly:   f.ReadOnly,
			Options:    f.Options,
			RequiredIf: f.RequiredIf,
		}
		if f.RequiredWhen != nil && f.RequiredWhen(o) {
			fd.Required = true
		}
		if f.Default != nil {
			fd.Default = f.Default(o)
		}
		d.Fields = append(d.Fields, fd)
	}
	return d
}

// find resolves an action against the order. Two table rows may share an
// action name with disjoint guards; the first applicable row wins.
func (e *Engine) find(o *orders.Order, action Action, canSubmit bool) (*Transition, error) {
	if !actionable(o) {
		return nil, ErrActionNotAvailable
	}
	for i := range e.table {
		t := &e.table[i]
		if t.Action != action {
			continue
		}
		if t.RequiresSubmit && !canSubmit {
			continue
		}
		if t.Guard(o) {
			return t, nil
		}
	}
	return nil, ErrActionNotAvailable
}

// Execute runs one transition end to end: guard, confirmation, input
// validation, preparatory calls, the main call, the WhatsApp sub-step, and
// finally a full reload of the canonical record.
//
// There is no de-duplication across invocations. A repeated call races to
// the document server, which rejects it once the source status has moved on.
func (e *Engine) Execute(ctx context.Context, o *orders.Order, action Action, req ExecuteRequest) (*Result, error) {
	t, err := e.find(o, action, req.CanSubmit)
	if err != nil {
		return nil, err
	}

	res := &Result{Action: action}
	if t.Warnings != nil {
		res.Warnings = t.Warnings(o)
	}

	if !req.Confirmed {
		res.Outcome = OutcomeCancelled
		return res, nil
	}

	values := req.Values
	if values == nil {
		values = Values{}
	}
	if problems := ValidateInputs(t.Fields, o, values); len(problems) > 0 {
		return nil, &InputError{Problems: problems}
	}

	for _, step := range t.Before {
		if err := e.gateway.Invoke(ctx, step.Method, step.Args(o, values)); err != nil {
			return nil, fmt.Errorf("transition %s: %w", action, err)
		}
	}

	args := map[string]any{"docname": o.Name}
	if t.Args != nil {
		args = t.Args(o, values)
	}
	if err := e.gateway.Invoke(ctx, t.Method, args); err != nil {
		return nil, fmt.Errorf("transition %s: %w", action, err)
	}

	res.Outcome = OutcomeApplied
	res.Message = t.Success

	if t.Notify != nil && values.Bool("notify_through_whatsapp") {
		e.notifyCustomer(ctx, t, o, values, res)
	}
	if t.Mail != nil {
		e.mailCustomer(ctx, t, o, res)
	}

	reloaded, err := e.reloader.Reload(ctx, o.Name)
	if err != nil {
		// The transition already went through; the stale mirror heals on
		// the next reload.
		e.logger.Warn("order reload failed after transition",
			slog.String("order", o.Name),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		res.ReloadError = err.Error()
		return res, nil
	}
	res.Order = reloaded
	return res, nil
}

// notifyCustomer runs the WhatsApp sub-step. A malformed number or a send
// failure never unwinds the transition; it is reported on the result only.
func (e *Engine) notifyCustomer(ctx context.Context, t *Transition, o *orders.Order, values Values, res *Result) {
	mobile, err := notify.NormalizeMobile(values.Str("mobile_no"))
	if err != nil {
		res.NotificationError = err.Error()
		return
	}

	msg := values.Str("message")
	if msg == "" {
		msg = t.Notify.DefaultMessage(o)
	}

	if err := e.messenger.Send(ctx, mobile, msg); err != nil {
		e.logger.Error("whatsapp notification failed",
			slog.String("order", o.Name),
			slog.String("error", err.Error()))
		res.NotificationError = err.Error()
		return
	}
	res.NotificationQueued = true
}

// mailCustomer runs the email side-channel. Like the WhatsApp sub-step it is
// non-fatal and never unwinds an applied transition.
func (e *Engine) mailCustomer(ctx context.Context, t *Transition, o *orders.Order, res *Result) {
	if e.mailer == nil || !t.Mail.When(o) {
		return
	}
	if err := e.mailer.Send(ctx, o.CustomerEmail, t.Mail.Subject(o), t.Mail.Body(o)); err != nil {
		e.logger.Error("email notification failed",
			slog.String("order", o.Name),
			slog.String("error", err.Error()))
		return
	}
	res.EmailQueued = true
}
