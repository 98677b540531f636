// Package notifications emails account holders when an administrator
// changes what they can access.
package notifications

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/logging"
	"github.com/optitalent/hr-backend/internal/queue"
	"github.com/optitalent/hr-backend/internal/rbac"
)

const (
	TemplateRoleChanged = "role_changed"
	TemplateDeactivated = "deactivated"
)

// Notice is the data every template is rendered with.
type Notice struct {
	EmployeeID string
	Email      string
	OldRole    rbac.Role
	NewRole    rbac.Role
	ActorID    uuid.UUID
	At         time.Time
}

type Dispatcher struct {
	queue     queue.Enqueuer
	templates *template.Template
	now       func() time.Time
}

// NewDispatcher returns a dispatcher that enqueues through q. A nil queue
// disables delivery.
func NewDispatcher(q queue.Enqueuer, tmpl *template.Template) *Dispatcher {
	return &Dispatcher{queue: q, templates: tmpl, now: time.Now}
}

// RoleChanged tells the account holder their role changed. Failures are
// logged, not returned: the role change itself has already committed.
func (d *Dispatcher) RoleChanged(ctx context.Context, change *identity.RoleChange, actorID uuid.UUID) {
	if change == nil || change.Account == nil || change.Previous == change.Account.Role {
		return
	}
	d.send(ctx, TemplateRoleChanged, Notice{
		EmployeeID: change.Account.EmployeeID,
		Email:      change.Account.Email,
		OldRole:    change.Previous,
		NewRole:    change.Account.Role,
		ActorID:    actorID,
	})
}

func (d *Dispatcher) Deactivated(ctx context.Context, account *identity.Account, actorID uuid.UUID) {
	if account == nil {
		return
	}
	d.send(ctx, TemplateDeactivated, Notice{
		EmployeeID: account.EmployeeID,
		Email:      account.Email,
		OldRole:    account.Role,
		ActorID:    actorID,
	})
}

func (d *Dispatcher) send(ctx context.Context, name string, n Notice) {
	if d == nil || d.queue == nil {
		return
	}
	if n.Email == "" {
		logging.Warn("account has no email, skipping notice", "template", name, "employee_id", n.EmployeeID)
		return
	}

	n.At = d.now().UTC()
	subject, body, err := d.render(name, n)
	if err != nil {
		logging.Error("failed to render notice", "template", name, "error", err)
		return
	}

	if _, err := d.queue.Enqueue(queue.TypeEmailDelivery, queue.EmailDeliveryPayload{
		To:      n.Email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		logging.Error("failed to enqueue notice", "template", name, "employee_id", n.EmployeeID, "error", err)
	}
}

// {{define "name:subject"}} and {{define "name:body"}}
func (d *Dispatcher) render(name string, n Notice) (subject, body string, err error) {
	var subjectBuf bytes.Buffer
	if err = d.templates.ExecuteTemplate(&subjectBuf, name+":subject", n); err != nil {
		return "", "", fmt.Errorf("render subject for %q: %w", name, err)
	}

	var bodyBuf bytes.Buffer
	if err = d.templates.ExecuteTemplate(&bodyBuf, name+":body", n); err != nil {
		return "", "", fmt.Errorf("render body for %q: %w", name, err)
	}

	return subjectBuf.String(), bodyBuf.String(), nil
}
