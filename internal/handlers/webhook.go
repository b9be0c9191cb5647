package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RayZn-Ace/boxplanet/internal/platform/observability"
	"github.com/RayZn-Ace/boxplanet/internal/services"
)

// WebhookHandlers receives payment provider callbacks. The endpoint always
// acknowledges with 200: the provider retries non-2xx responses forever, and
// reconciliation re-fetches authoritative state anyway, so a failed delivery
// loses nothing that a later one cannot recover.
type WebhookHandlers struct {
	reconcile services.ReconcileService
}

// NewWebhookHandlers constructs webhook handlers.
func NewWebhookHandlers(reconcile services.ReconcileService) *WebhookHandlers {
	return &WebhookHandlers{reconcile: reconcile}
}

// Routes registers webhook endpoints under the provided router.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/mollie-webhook", h.mollieWebhook)
}

func (h *WebhookHandlers) mollieWebhook(w http.ResponseWriter, r *http.Request) {
	// Form parse errors and missing ids fall through to the reconciler,
	// which logs and ignores them. The response never varies.
	_ = r.ParseForm()
	id := observability.SanitizeTransactionID(r.PostFormValue("id"))

	if h.reconcile != nil {
		h.reconcile.Reconcile(r.Context(), id)
	}

	w.WriteHeader(http.StatusOK)
}
