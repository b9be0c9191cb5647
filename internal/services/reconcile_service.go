package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RayZn-Ace/boxplanet/internal/domain"
	"github.com/RayZn-Ace/boxplanet/internal/notifications"
	"github.com/RayZn-Ace/boxplanet/internal/payments"
	"github.com/RayZn-Ace/boxplanet/internal/platform/dedup"
)

// ReconcileOutcome describes what a single webhook delivery led to. It exists
// for logging and tests; the HTTP layer acknowledges the delivery regardless.
type ReconcileOutcome struct {
	TransactionID    string
	Status           payments.Status
	Duplicate        bool
	NotifiedAdmin    bool
	NotifiedCustomer bool
}

// ReconcileService re-fetches authoritative transaction state and emits
// notifications for confirmed payments. The webhook payload is only an id:
// status, amount, and order content all come from the provider lookup.
type ReconcileService interface {
	Reconcile(ctx context.Context, transactionID string) ReconcileOutcome
}

// ReconcileServiceDeps wires the dependencies required by the reconcile service.
type ReconcileServiceDeps struct {
	Payments    payments.Provider
	Mailer      notifications.Mailer
	Dedup       dedup.Store
	FromEmail   string
	NotifyEmail string
	Live        bool
	Clock       func() time.Time
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type reconcileService struct {
	payments    payments.Provider
	mailer      notifications.Mailer
	dedup       dedup.Store
	fromEmail   string
	notifyEmail string
	live        bool
	now         func() time.Time
	logger      func(ctx context.Context, event string, fields map[string]any)
}

// NewReconcileService constructs a ReconcileService. Mailer and dedup store
// are optional: without a mailer confirmations are logged only, without a
// store every delivery is treated as first.
func NewReconcileService(deps ReconcileServiceDeps) (ReconcileService, error) {
	if deps.Payments == nil {
		return nil, errors.New("reconcile service: payment provider is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &reconcileService{
		payments:    deps.Payments,
		mailer:      deps.Mailer,
		dedup:       deps.Dedup,
		fromEmail:   strings.TrimSpace(deps.FromEmail),
		notifyEmail: strings.TrimSpace(deps.NotifyEmail),
		live:        deps.Live,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Reconcile processes one webhook delivery. Every failure is swallowed after
// logging: the provider retries on non-2xx responses and a poisoned delivery
// must never wedge the queue.
func (s *reconcileService) Reconcile(ctx context.Context, transactionID string) ReconcileOutcome {
	id := strings.TrimSpace(transactionID)
	outcome := ReconcileOutcome{TransactionID: id, Status: payments.StatusNotFound}
	if id == "" {
		s.logger(ctx, "reconcile.skipped.empty_id", nil)
		return outcome
	}

	tx, err := s.fetch(ctx, id)
	if err != nil {
		event := "reconcile.fetch.failed"
		if errors.Is(err, payments.ErrNotFound) {
			event = "reconcile.fetch.not_found"
		}
		s.logger(ctx, event, map[string]any{"transaction": id, "error": err.Error()})
		return outcome
	}

	outcome.Status = tx.Status
	if tx.Status != payments.StatusConfirmed {
		s.logger(ctx, "reconcile.pending", map[string]any{
			"transaction": id,
			"status":      tx.RawStatus,
		})
		return outcome
	}

	if s.dedup != nil {
		seen, err := s.dedup.MarkNotified(ctx, id, s.now())
		if err != nil {
			// At-least-once beats silence: proceed as if unseen.
			s.logger(ctx, "reconcile.dedup.failed", map[string]any{
				"transaction": id,
				"error":       err.Error(),
			})
		} else if seen {
			outcome.Duplicate = true
			s.logger(ctx, "reconcile.duplicate", map[string]any{"transaction": id})
			return outcome
		}
	}

	meta, _ := domain.ParseMetadata(tx.Metadata)
	order := notifications.ConfirmedOrder{
		TransactionID: tx.ID,
		RawStatus:     tx.RawStatus,
		AmountValue:   tx.Amount.Value,
		Currency:      tx.Amount.Currency,
		Live:          s.live,
		Metadata:      meta,
	}

	outcome.NotifiedAdmin = s.send(ctx, notifications.Intent{
		Audience:  notifications.AudienceAdmin,
		Recipient: s.notifyEmail,
		Subject:   notifications.Subject(order),
		Body:      notifications.RenderAdminBody(order),
	})

	if notifications.PlausibleEmail(meta.Email) {
		outcome.NotifiedCustomer = s.send(ctx, notifications.Intent{
			Audience:  notifications.AudienceCustomer,
			Recipient: meta.Email,
			Subject:   notifications.Subject(order),
			Body:      notifications.RenderCustomerBody(order),
		})
	}

	s.logger(ctx, "reconcile.confirmed", map[string]any{
		"transaction":       id,
		"status":            tx.RawStatus,
		"notified_admin":    outcome.NotifiedAdmin,
		"notified_customer": outcome.NotifiedCustomer,
	})
	return outcome
}

func (s *reconcileService) fetch(ctx context.Context, id string) (payments.Transaction, error) {
	if payments.IsOrderID(id) {
		return s.payments.GetOrder(ctx, id)
	}
	return s.payments.GetPayment(ctx, id)
}

func (s *reconcileService) send(ctx context.Context, intent notifications.Intent) bool {
	if s.mailer == nil || s.fromEmail == "" || strings.TrimSpace(intent.Recipient) == "" {
		s.logger(ctx, "reconcile.mail.skipped", map[string]any{
			"audience": string(intent.Audience),
		})
		return false
	}

	messageID, err := s.mailer.Send(ctx, s.fromEmail, []string{intent.Recipient}, intent.Subject, intent.Body)
	if err != nil {
		s.logger(ctx, "reconcile.mail.failed", map[string]any{
			"audience": string(intent.Audience),
			"error":    err.Error(),
		})
		return false
	}

	s.logger(ctx, "reconcile.mail.sent", map[string]any{
		"audience":   string(intent.Audience),
		"message_id": messageID,
	})
	return true
}
