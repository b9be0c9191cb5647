package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RayZn-Ace/boxplanet/internal/payments"
)

type recordedMail struct {
	from    string
	to      []string
	subject string
	body    string
}

type stubMailer struct {
	sent []recordedMail
	err  error
}

func (m *stubMailer) Send(_ context.Context, from string, to []string, subject, text string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, recordedMail{from: from, to: to, subject: subject, body: text})
	return "email_1", nil
}

type stubDedup struct {
	seen map[string]bool
	err  error
}

func (d *stubDedup) MarkNotified(_ context.Context, id string, _ time.Time) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[id] {
		return true, nil
	}
	d.seen[id] = true
	return false, nil
}

func confirmedTransaction(id string) payments.Transaction {
	return payments.Transaction{
		ID:        id,
		Status:    payments.StatusConfirmed,
		RawStatus: "paid",
		Amount:    payments.Amount{Currency: "EUR", Value: "3950.80"},
		Metadata: map[string]any{
			"reference": "01ABC",
			"customer": map[string]any{
				"firstName": "Max",
				"lastName":  "Muster",
				"email":     "max@example.com",
			},
			"items": []any{
				map[string]any{
					"productOption": "coin",
					"quantity":      float64(2),
					"name":          "Münzzähler",
					"unitPriceNet":  "1660.00",
					"lineGross":     "3950.80",
				},
			},
			"vatRate":    float64(19),
			"totalNet":   "3320.00",
			"totalGross": "3950.80",
			"email":      "max@example.com",
		},
	}
}

func newReconcileForTest(t *testing.T, deps ReconcileServiceDeps) ReconcileService {
	t.Helper()
	svc, err := NewReconcileService(deps)
	if err != nil {
		t.Fatalf("new reconcile service: %v", err)
	}
	return svc
}

func TestReconcileDispatchesByIDPrefix(t *testing.T) {
	var gotOrder, gotPayment string
	provider := &stubProvider{
		getOrderFn: func(_ context.Context, id string) (payments.Transaction, error) {
			gotOrder = id
			return payments.Transaction{ID: id, Status: payments.StatusPending, RawStatus: "created"}, nil
		},
		getPaymentFn: func(_ context.Context, id string) (payments.Transaction, error) {
			gotPayment = id
			return payments.Transaction{ID: id, Status: payments.StatusPending, RawStatus: "open"}, nil
		},
	}
	svc := newReconcileForTest(t, ReconcileServiceDeps{Payments: provider})

	svc.Reconcile(context.Background(), "ord_55")
	if gotOrder != "ord_55" {
		t.Fatalf("ord_ prefix must hit the order lookup, got %q", gotOrder)
	}

	svc.Reconcile(context.Background(), "tr_77")
	if gotPayment != "tr_77" {
		t.Fatalf("other ids must hit the payment lookup, got %q", gotPayment)
	}
}

func TestReconcileConfirmedSendsAdminThenCustomer(t *testing.T) {
	provider := &stubProvider{
		getPaymentFn: func(_ context.Context, id string) (payments.Transaction, error) {
			return confirmedTransaction(id), nil
		},
	}
	mailer := &stubMailer{}
	svc := newReconcileForTest(t, ReconcileServiceDeps{
		Payments:    provider,
		Mailer:      mailer,
		FromEmail:   "shop@boxplanet.shop",
		NotifyEmail: "ops@boxplanet.shop",
	})

	outcome := svc.Reconcile(context.Background(), "tr_1")
	if outcome.Status != payments.StatusConfirmed {
		t.Fatalf("expected confirmed outcome, got %s", outcome.Status)
	}
	if !outcome.NotifiedAdmin || !outcome.NotifiedCustomer {
		t.Fatalf("expected both notifications, got %+v", outcome)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected two mails, got %d", len(mailer.sent))
	}
	if mailer.sent[0].to[0] != "ops@boxplanet.shop" {
		t.Fatalf("admin mail must go first, got %v", mailer.sent[0].to)
	}
	if mailer.sent[1].to[0] != "max@example.com" {
		t.Fatalf("customer mail must use the metadata address, got %v", mailer.sent[1].to)
	}
}

func TestReconcilePendingSendsNothing(t *testing.T) {
	provider := &stubProvider{
		getPaymentFn: func(_ context.Context, id string) (payments.Transaction, error) {
			return payments.Transaction{ID: id, Status: payments.StatusPending, RawStatus: "open"}, nil
		},
	}
	mailer := &stubMailer{}
	svc := newReconcileForTest(t, ReconcileServiceDeps{
		Payments:    provider,
		Mailer:      mailer,
		FromEmail:   "shop@boxplanet.shop",
		NotifyEmail: "ops@boxplanet.shop",
	})

	outcome := svc.Reconcile(context.Background(), "tr_1")
	if outcome.Status != payments.StatusPending {
		t.Fatalf("expected pending, got %s", outcome.Status)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("pending must not notify, got %d mails", len(mailer.sent))
	}
}

func TestReconcileNotFoundSendsNothing(t *testing.T) {
	provider := &stubProvider{
		getPaymentFn: func(_ context.Context, _ string) (payments.Transaction, error) {
			return payments.Transaction{}, payments.ErrNotFound
		},
	}
	mailer := &stubMailer{}
	svc := newReconcileForTest(t, ReconcileServiceDeps{
		Payments:    provider,
		Mailer:      mailer,
		FromEmail:   "shop@boxplanet.shop",
		NotifyEmail: "ops@boxplanet.shop",
	})

	outcome := svc.Reconcile(context.Background(), "tr_missing")
	if outcome.Status != payments.StatusNotFound {
		t.Fatalf("expected not found, got %s", outcome.Status)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("not-found must not notify")
	}
}

func TestReconcileDuplicateDeliverySkipsMail(t *testing.T) {
	provider := &stubProvider{
		getPaymentFn: func(_ context.Context, id string) (payments.Transaction, error) {
			return confirmedTransaction(id), nil
		},
	}
	mailer := &stubMailer{}
	svc := newReconcileForTest(t, ReconcileServiceDeps{
		Payments:    provider,
		Mailer:      mailer,
		Dedup:       &stubDedup{},
		FromEmail:   "shop@boxplanet.shop",
		NotifyEmail: "ops@boxplanet.shop",
	})

	first := svc.Reconcile(context.Background(), "tr_1")
	second := svc.Reconcile(context.Background(), "tr_1")

	if first.Duplicate {
		t.Fatalf("first delivery must not be a duplicate")
	}
	if !second.Duplicate {
		t.Fatalf("second delivery must be flagged duplicate")
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("duplicate delivery must not send again, got %d mails", len(mailer.sent))
	}
}

func TestReconcileDedupErrorStillNotifies(t *testing.T) {
	provider := &stubProvider{
		getPaymentFn: func(_ context.Context, id string) (payments.Transaction, error) {
			return confirmedTransaction(id), nil
		},
	}
	mailer := &stubMailer{}
	svc := newReconcileForTest(t, ReconcileServiceDeps{
		Payments:    provider,
		Mailer:      mailer,
		Dedup:       &stubDedup{err: errors.New("store down")},
		FromEmail:   "shop@boxplanet.shop",
		NotifyEmail: "ops@boxplanet.shop",
	})

	outcome := svc.Reconcile(context.Background(), "tr_1")
	if !outcome.NotifiedAdmin {
		t.Fatalf("store failure must not block notification")
	}
}

func TestReconcileWithoutMailerStillReconciles(t *testing.T) {
	provider := &stubProvider{
		getPaymentFn: func(_ context.Context, id string) (payments.Transaction, error) {
			return confirmedTransaction(id), nil
		},
	}
	svc := newReconcileForTest(t, ReconcileServiceDeps{Payments: provider})

	outcome := svc.Reconcile(context.Background(), "tr_1")
	if outcome.Status != payments.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", outcome.Status)
	}
	if outcome.NotifiedAdmin || outcome.NotifiedCustomer {
		t.Fatalf("no mailer means no notifications, got %+v", outcome)
	}
}

func TestReconcileImplausibleCustomerEmailOnlyAdmin(t *testing.T) {
	tx := confirmedTransaction("tr_1")
	meta := tx.Metadata
	meta["email"] = "not-an-address"
	customer := meta["customer"].(map[string]any)
	customer["email"] = "not-an-address"

	provider := &stubProvider{
		getPaymentFn: func(_ context.Context, _ string) (payments.Transaction, error) {
			return tx, nil
		},
	}
	mailer := &stubMailer{}
	svc := newReconcileForTest(t, ReconcileServiceDeps{
		Payments:    provider,
		Mailer:      mailer,
		FromEmail:   "shop@boxplanet.shop",
		NotifyEmail: "ops@boxplanet.shop",
	})

	outcome := svc.Reconcile(context.Background(), "tr_1")
	if !outcome.NotifiedAdmin || outcome.NotifiedCustomer {
		t.Fatalf("only admin should be notified, got %+v", outcome)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
}

func TestReconcileEmptyIDIgnored(t *testing.T) {
	svc := newReconcileForTest(t, ReconcileServiceDeps{Payments: &stubProvider{}})

	outcome := svc.Reconcile(context.Background(), "   ")
	if outcome.Status != payments.StatusNotFound {
		t.Fatalf("empty id must resolve to not found, got %s", outcome.Status)
	}
}
