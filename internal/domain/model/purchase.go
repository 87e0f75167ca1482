package model

import (
	"time"

	"github.com/google/uuid"

	"course-purchase-platform/internal/domain"
)

type PurchaseState string

const (
	PurchaseStatePending   PurchaseState = "pending"   // record created; payment (if any) not yet verified
	PurchaseStateCompleted PurchaseState = "completed" // access granted
	PurchaseStateFailed    PurchaseState = "failed"    // verification failed; retryable via a new purchase call
	PurchaseStateCancelled PurchaseState = "cancelled" // explicit user cancellation of a pending record
)

// PaymentDetails tracks the payment leg of a purchase. It is only meaningful
// while the record is pending (order issued) or completed (payment verified).
type PaymentDetails struct {
	AmountPaise      int64
	Currency         string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	Method           string
	PaidAt           *time.Time
	FailureReason    string
	FailedAt         *time.Time
}

// PurchaseRecord is one student's acquisition of one item. At most one record
// per (student, item) may be completed and active; that record grants access.
// All state changes go through the transition methods below.
type PurchaseRecord struct {
	ID              string
	StudentID       string
	ItemID          string
	ItemKind        ItemKind
	State           PurchaseState
	Payment         PaymentDetails
	AccessGrantedAt *time.Time
	PurchasedAt     *time.Time
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewPurchaseRecord(studentID, itemID string, kind ItemKind) (*PurchaseRecord, error) {
	if studentID == "" || itemID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PurchaseRecord{
		ID:        uuid.NewString(),
		StudentID: studentID,
		ItemID:    itemID,
		ItemKind:  kind,
		State:     PurchaseStatePending,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GrantsAccess reports whether this record currently entitles the student to
// the item's content.
func (r *PurchaseRecord) GrantsAccess() bool {
	return r.State == PurchaseStateCompleted && r.IsActive
}

// AttachOrder binds a freshly issued gateway order to a pending record.
func (r *PurchaseRecord) AttachOrder(orderID string, amountPaise int64, currency string) error {
	if r.State != PurchaseStatePending {
		return domain.ErrInvalidTransition
	}
	if orderID == "" || amountPaise <= 0 {
		return domain.ErrInvalidArgument
	}
	r.Payment.GatewayOrderID = orderID
	r.Payment.AmountPaise = amountPaise
	r.Payment.Currency = currency
	r.UpdatedAt = time.Now()
	return nil
}

// Complete moves a pending record straight to completed with no payment leg.
// Used for free items.
func (r *PurchaseRecord) Complete(at time.Time) error {
	if r.State != PurchaseStatePending {
		return domain.ErrInvalidTransition
	}
	r.State = PurchaseStateCompleted
	r.PurchasedAt = &at
	r.AccessGrantedAt = &at
	r.IsActive = true
	r.UpdatedAt = at
	return nil
}

// CompletePayment records a verified payment and moves the record to
// completed in one step, so the payment leg can never disagree with the
// purchase state.
func (r *PurchaseRecord) CompletePayment(paymentID, signature, method string, at time.Time) error {
	if r.State != PurchaseStatePending {
		return domain.ErrInvalidTransition
	}
	r.Payment.GatewayPaymentID = paymentID
	r.Payment.Signature = signature
	r.Payment.Method = method
	r.Payment.PaidAt = &at
	r.Payment.FailureReason = ""
	r.Payment.FailedAt = nil
	r.State = PurchaseStateCompleted
	r.PurchasedAt = &at
	r.AccessGrantedAt = &at
	r.IsActive = true
	r.UpdatedAt = at
	return nil
}

// Fail marks a pending record failed with a reason. Failed records do not
// block a later purchase attempt.
func (r *PurchaseRecord) Fail(reason string, at time.Time) error {
	if r.State != PurchaseStatePending {
		return domain.ErrInvalidTransition
	}
	if reason == "" {
		return domain.ErrInvalidArgument
	}
	r.State = PurchaseStateFailed
	r.Payment.FailureReason = reason
	r.Payment.FailedAt = &at
	r.UpdatedAt = at
	return nil
}

// Cancel marks a still-pending record cancelled.
func (r *PurchaseRecord) Cancel(at time.Time) error {
	if r.State != PurchaseStatePending {
		return domain.ErrInvalidTransition
	}
	r.State = PurchaseStateCancelled
	r.UpdatedAt = at
	return nil
}

// Reset returns a failed or cancelled record to pending for a retry,
// clearing the stale payment leg. Completed records cannot be reset.
func (r *PurchaseRecord) Reset(at time.Time) error {
	if r.State != PurchaseStateFailed && r.State != PurchaseStateCancelled {
		return domain.ErrInvalidTransition
	}
	r.State = PurchaseStatePending
	r.Payment = PaymentDetails{}
	r.PurchasedAt = nil
	r.AccessGrantedAt = nil
	r.IsActive = true
	r.UpdatedAt = at
	return nil
}
