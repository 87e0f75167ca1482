package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/infra/logging"
	"course-purchase-platform/internal/infra/metrics"
	"course-purchase-platform/internal/usecase"
)

// writeDomainError maps domain errors onto HTTP statuses with generic
// messages. Details stay in the logs.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrAlreadyPurchased),
		errors.Is(err, domain.ErrItemUnavailable),
		errors.Is(err, domain.ErrVerificationFailed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, domain.ErrPurchaseLocked),
		errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler for starting a purchase of an item.
func purchaseHandler(purchaseUC usecase.PurchaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		studentID := logging.StudentID(ctx)
		itemID := chi.URLParam(r, "itemID")

		res, err := purchaseUC.Purchase(ctx, studentID, itemID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		response := struct {
			Purchase *model.PurchaseRecord `json:"purchase"`
			Order    *orderResponse        `json:"order,omitempty"`
		}{
			Purchase: res.Record,
		}
		if res.Order != nil {
			response.Order = &orderResponse{
				ID:          res.Order.ID,
				AmountPaise: res.Order.AmountPaise,
				Currency:    res.Order.Currency,
				Receipt:     res.Order.Receipt,
			}
		}
		writeJSON(w, http.StatusOK, response)
	}
}

type orderResponse struct {
	ID          string `json:"id"`
	AmountPaise int64  `json:"amount_paise"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// A struct to define the expected JSON request body for verifying a payment.
type verifyRequest struct {
	PurchaseID       string `json:"purchase_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// verifyHandler confirms a gateway payment and completes the purchase.
func verifyHandler(purchaseUC usecase.PurchaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metrics.PaymentVerifyRequests.WithLabelValues("fail", "bad_json").Inc()
			metrics.PaymentVerifyDuration.WithLabelValues("fail").Observe(time.Since(start).Seconds())
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		rec, err := purchaseUC.VerifyAndComplete(ctx, logging.StudentID(ctx), usecase.VerifyRequest{
			PurchaseID:       req.PurchaseID,
			GatewayOrderID:   req.GatewayOrderID,
			GatewayPaymentID: req.GatewayPaymentID,
			Signature:        req.Signature,
		})
		if err != nil {
			metrics.PaymentVerifyRequests.WithLabelValues("fail", verifyFailReason(err)).Inc()
			metrics.PaymentVerifyDuration.WithLabelValues("fail").Observe(time.Since(start).Seconds())
			writeDomainError(w, r, err)
			return
		}

		metrics.PaymentVerifyRequests.WithLabelValues("ok", "").Inc()
		metrics.PaymentVerifyDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

		writeJSON(w, http.StatusOK, struct {
			Purchase *model.PurchaseRecord `json:"purchase"`
		}{Purchase: rec})
	}
}

func verifyFailReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "missing_fields"
	case errors.Is(err, domain.ErrVerificationFailed):
		return "bad_signature"
	case errors.Is(err, domain.ErrCompletionFailed):
		return "completion_error"
	case errors.Is(err, domain.ErrMissingGatewaySecret):
		return "config_error"
	default:
		return "unknown"
	}
}

// cancelHandler abandons a pending purchase.
func cancelHandler(purchaseUC usecase.PurchaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rec, err := purchaseUC.Cancel(ctx, logging.StudentID(ctx), chi.URLParam(r, "purchaseID"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Purchase *model.PurchaseRecord `json:"purchase"`
		}{Purchase: rec})
	}
}

// purchasesListHandler returns all of the student's purchase records.
func purchasesListHandler(purchaseUC usecase.PurchaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		recs, err := purchaseUC.ListByStudent(ctx, logging.StudentID(ctx))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		// To be consistent with our other list endpoints, we wrap the data.
		writeJSON(w, http.StatusOK, struct {
			Data []*model.PurchaseRecord `json:"data"`
		}{Data: recs})
	}
}

// itemsListHandler returns the purchasable catalog.
func itemsListHandler(accessUC usecase.AccessUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		onlyActive := r.URL.Query().Get("all") == ""
		items, err := accessUC.ListItems(ctx, onlyActive)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Data []*model.Item `json:"data"`
		}{Data: items})
	}
}

// accessHandler reports whether the student may open the item.
func accessHandler(accessUC usecase.AccessUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		dec, err := accessUC.HasAccess(ctx, logging.StudentID(ctx), chi.URLParam(r, "itemID"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			HasAccess bool                  `json:"has_access"`
			IsFree    bool                  `json:"is_free"`
			Purchase  *model.PurchaseRecord `json:"purchase,omitempty"`
		}{
			HasAccess: dec.HasAccess,
			IsFree:    dec.IsFree,
			Purchase:  dec.Record,
		})
	}
}
