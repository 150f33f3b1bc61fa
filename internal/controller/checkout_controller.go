package controller

import (
	"net/http"

	"github.com/cassiomorais/checkout/internal/service"
	"github.com/go-chi/chi/v5"
)

// CheckoutController handles checkout HTTP requests.
type CheckoutController struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutController creates a new CheckoutController.
func NewCheckoutController(checkoutService *service.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// Start handles POST /api/v1/orders/{id}/checkout
func (h *CheckoutController) Start(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.checkoutService.Initiate(r.Context(), orderID, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if !result.IsRedirect() {
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, FromResult(result))
}

// Return handles GET /api/v1/checkout/{hash}/return and /cancel. Both
// reconcile the checkout with the gateway; the gateway status decides the
// outcome.
func (h *CheckoutController) Return(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkoutService.Complete(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromResult(result))
}

// History handles GET /api/v1/admin/orders/{id}/payments
func (h *CheckoutController) History(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	logs, err := h.checkoutService.History(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]PaymentLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, FromLog(l))
	}
	writeJSON(w, http.StatusOK, resp)
}
