package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/domain/ports/adapter"
	"course-purchase-platform/internal/domain/ports/repository"
	"course-purchase-platform/internal/infra/metrics"
	"course-purchase-platform/internal/infra/payment"
)

// VerifyRequest carries the gateway callback fields a student submits
// after checkout. PurchaseID may be empty when the client only knows
// the gateway order id.
type VerifyRequest struct {
	PurchaseID       string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// PurchaseResult is what a purchase attempt hands back to the caller.
// Order is nil for free items, which complete immediately.
type PurchaseResult struct {
	Record *model.PurchaseRecord
	Order  *adapter.PaymentOrder
}

type PurchaseUseCase interface {
	Purchase(ctx context.Context, studentID, itemID string) (*PurchaseResult, error)
	VerifyAndComplete(ctx context.Context, studentID string, req VerifyRequest) (*model.PurchaseRecord, error)
	Cancel(ctx context.Context, studentID, purchaseID string) (*model.PurchaseRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.PurchaseRecord, error)
}

var _ PurchaseUseCase = (*purchaseUC)(nil)

type purchaseUC struct {
	purchases repository.PurchaseRepository
	items     repository.ItemRepository
	gateway   adapter.OrderGateway
	verifier  adapter.SignatureVerifier
	tm        repository.TransactionManager
	locker    repository.Locker
	lockTTL   time.Duration
	log       zerolog.Logger
}

func NewPurchaseUseCase(
	purchases repository.PurchaseRepository,
	items repository.ItemRepository,
	gateway adapter.OrderGateway,
	verifier adapter.SignatureVerifier,
	tm repository.TransactionManager,
	locker repository.Locker,
	lockTTL time.Duration,
	log zerolog.Logger,
) *purchaseUC {
	return &purchaseUC{
		purchases: purchases,
		items:     items,
		gateway:   gateway,
		verifier:  verifier,
		tm:        tm,
		locker:    locker,
		lockTTL:   lockTTL,
		log:       log.With().Str("component", "purchase_uc").Logger(),
	}
}

func lockKey(studentID, itemID string) string {
	return fmt.Sprintf("purchase:%s:%s", studentID, itemID)
}

// Purchase starts (or restarts) a purchase of itemID for studentID.
//
// Free items complete in one step: the record is saved as completed and
// the student is enrolled. Paid items get a gateway order first; the
// pending record is only persisted after the gateway accepted the
// order, so a gateway failure leaves no orphaned row behind.
func (u *purchaseUC) Purchase(ctx context.Context, studentID, itemID string) (*PurchaseResult, error) {
	if studentID == "" || itemID == "" {
		return nil, fmt.Errorf("%w: student id and item id are required", domain.ErrInvalidArgument)
	}

	token, err := u.locker.TryLock(ctx, lockKey(studentID, itemID), u.lockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := u.locker.Unlock(context.WithoutCancel(ctx), lockKey(studentID, itemID), token); uerr != nil {
			u.log.Warn().Err(uerr).Str("student_id", studentID).Msg("failed to release purchase lock")
		}
	}()

	// Ownership wins over availability: a student who already holds the
	// item hears "already purchased" even if it was deactivated since.
	granted, err := u.purchases.FindByStudentAndItem(ctx, nil, studentID, itemID, model.PurchaseStateCompleted)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if granted != nil && granted.GrantsAccess() {
		return nil, fmt.Errorf("%w: item %s", domain.ErrAlreadyPurchased, itemID)
	}

	item, err := u.items.FindByID(ctx, nil, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemUnavailable, itemID)
	}

	// Reuse the newest record for a retry. Completed records stay
	// immutable; a revoked one means the student starts over.
	existing, err := u.purchases.FindByStudentAndItem(ctx, nil, studentID, itemID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.State == model.PurchaseStateCompleted {
		existing = nil
	}

	if item.IsFree() {
		return u.completeFree(ctx, studentID, item, existing)
	}

	order, err := u.gateway.CreateOrder(ctx, item.PricePaise, item.Currency, payment.NewReceipt())
	if err != nil {
		metrics.IncGatewayOrder("error")
		return nil, err
	}
	metrics.IncGatewayOrder("ok")

	rec := existing
	if rec == nil {
		rec, err = model.NewPurchaseRecord(studentID, item.ID, item.Kind)
		if err != nil {
			return nil, err
		}
	} else if rec.State != model.PurchaseStatePending {
		if err := rec.Reset(time.Now()); err != nil {
			return nil, err
		}
	}
	if err := rec.AttachOrder(order.ID, order.AmountPaise, order.Currency); err != nil {
		return nil, err
	}
	if err := u.purchases.Save(ctx, nil, rec); err != nil {
		return nil, err
	}
	metrics.IncPurchase(string(model.PurchaseStatePending), string(item.Kind))

	u.log.Info().
		Str("student_id", studentID).
		Str("item_id", itemID).
		Str("gateway_order_id", order.ID).
		Msg("purchase initiated")

	return &PurchaseResult{Record: rec, Order: order}, nil
}

func (u *purchaseUC) completeFree(ctx context.Context, studentID string, item *model.Item, existing *model.PurchaseRecord) (*PurchaseResult, error) {
	now := time.Now()
	rec := existing
	if rec == nil {
		var err error
		rec, err = model.NewPurchaseRecord(studentID, item.ID, item.Kind)
		if err != nil {
			return nil, err
		}
	} else if rec.State != model.PurchaseStatePending {
		if err := rec.Reset(now); err != nil {
			return nil, err
		}
	}

	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.purchases.Save(ctx, tx, rec); err != nil {
			return err
		}
		ok, err := u.purchases.CompletePurchase(ctx, tx, rec.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: purchase %s is not pending", domain.ErrInvalidTransition, rec.ID)
		}
		if _, err := u.items.AppendEnrolled(ctx, tx, item.ID, studentID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := rec.Complete(now); err != nil {
		return nil, err
	}
	metrics.IncPurchase(string(model.PurchaseStateCompleted), string(item.Kind))

	u.log.Info().
		Str("student_id", studentID).
		Str("item_id", item.ID).
		Msg("free item granted")

	return &PurchaseResult{Record: rec}, nil
}

// VerifyAndComplete checks the gateway signature for a pending purchase
// and flips it to completed. The state change is a single conditional
// update keyed on the pending state, so concurrent callbacks for the
// same purchase converge: exactly one wins the update and the others
// observe the completed row and return it as-is.
func (u *purchaseUC) VerifyAndComplete(ctx context.Context, studentID string, req VerifyRequest) (*model.PurchaseRecord, error) {
	rec, err := u.locate(ctx, studentID, req)
	if err != nil {
		return nil, err
	}

	if rec.State == model.PurchaseStateCompleted {
		return rec, nil
	}
	if rec.State != model.PurchaseStatePending {
		return nil, fmt.Errorf("%w: purchase %s", domain.ErrNotFound, rec.ID)
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, fmt.Errorf("%w: order id, payment id and signature are required", domain.ErrInvalidArgument)
	}
	if rec.Payment.GatewayOrderID != req.GatewayOrderID {
		return nil, fmt.Errorf("%w: order id does not match purchase", domain.ErrVerificationFailed)
	}

	ok, err := u.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !ok {
		if _, mErr := u.purchases.MarkFailed(ctx, nil, rec.ID, "signature mismatch", now); mErr != nil {
			u.log.Error().Err(mErr).Str("purchase_id", rec.ID).Msg("failed to mark purchase failed")
		}
		metrics.IncPurchase(string(model.PurchaseStateFailed), string(rec.ItemKind))
		u.log.Warn().
			Str("student_id", studentID).
			Str("purchase_id", rec.ID).
			Str("verifier", u.verifier.Name()).
			Msg("signature verification failed")
		return nil, domain.ErrVerificationFailed
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		won, err := u.purchases.CompletePayment(ctx, tx, rec.ID, req.GatewayPaymentID, req.Signature, "", now)
		if err != nil {
			return err
		}
		if !won {
			// Another callback already completed (or failed) this purchase.
			return nil
		}
		if _, err := u.items.AppendEnrolled(ctx, tx, rec.ItemID, studentID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCompletionFailed, err)
	}

	fresh, err := u.purchases.FindByID(ctx, nil, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCompletionFailed, err)
	}
	if fresh.State != model.PurchaseStateCompleted {
		return nil, fmt.Errorf("%w: purchase %s ended in state %s", domain.ErrCompletionFailed, fresh.ID, fresh.State)
	}
	metrics.IncPurchase(string(model.PurchaseStateCompleted), string(fresh.ItemKind))

	u.log.Info().
		Str("student_id", studentID).
		Str("purchase_id", fresh.ID).
		Str("gateway_payment_id", req.GatewayPaymentID).
		Msg("purchase completed")

	return fresh, nil
}

// locate resolves the purchase record a verify request refers to,
// scoped to the calling student so one student cannot complete
// another's purchase.
func (u *purchaseUC) locate(ctx context.Context, studentID string, req VerifyRequest) (*model.PurchaseRecord, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is required", domain.ErrInvalidArgument)
	}
	if req.PurchaseID != "" {
		rec, err := u.purchases.FindByID(ctx, nil, req.PurchaseID)
		if err != nil {
			return nil, err
		}
		if rec.StudentID != studentID {
			return nil, fmt.Errorf("%w: purchase %s", domain.ErrNotFound, req.PurchaseID)
		}
		return rec, nil
	}
	if req.GatewayOrderID != "" {
		return u.purchases.FindByGatewayOrderID(ctx, nil, studentID, req.GatewayOrderID)
	}
	return nil, fmt.Errorf("%w: purchase id or order id is required", domain.ErrInvalidArgument)
}

// Cancel abandons a pending purchase. Completed purchases cannot be
// cancelled through this path.
func (u *purchaseUC) Cancel(ctx context.Context, studentID, purchaseID string) (*model.PurchaseRecord, error) {
	if studentID == "" || purchaseID == "" {
		return nil, fmt.Errorf("%w: student id and purchase id are required", domain.ErrInvalidArgument)
	}
	rec, err := u.purchases.FindByID(ctx, nil, purchaseID)
	if err != nil {
		return nil, err
	}
	if rec.StudentID != studentID {
		return nil, fmt.Errorf("%w: purchase %s", domain.ErrNotFound, purchaseID)
	}
	now := time.Now()
	ok, err := u.purchases.Cancel(ctx, nil, purchaseID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: purchase %s is not pending", domain.ErrInvalidTransition, purchaseID)
	}
	if err := rec.Cancel(now); err != nil {
		return nil, err
	}
	metrics.IncPurchase(string(model.PurchaseStateCancelled), string(rec.ItemKind))
	return rec, nil
}

func (u *purchaseUC) ListByStudent(ctx context.Context, studentID string) ([]*model.PurchaseRecord, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is required", domain.ErrInvalidArgument)
	}
	return u.purchases.ListByStudent(ctx, studentID)
}
