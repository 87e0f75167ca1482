package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, student_id, item_id, item_kind, state, amount_paise, currency, gateway_order_id, gateway_payment_id, signature, payment_method, paid_at, failure_reason, failed_at, access_granted_at, purchased_at, is_active, created_at, updated_at`

func scanPurchase(row pgx.Row) (*model.PurchaseRecord, error) {
	r := &model.PurchaseRecord{}
	var orderID, paymentID, sig, method, failureReason *string
	err := row.Scan(
		&r.ID, &r.StudentID, &r.ItemID, &r.ItemKind, &r.State,
		&r.Payment.AmountPaise, &r.Payment.Currency,
		&orderID, &paymentID, &sig, &method,
		&r.Payment.PaidAt, &failureReason, &r.Payment.FailedAt,
		&r.AccessGrantedAt, &r.PurchasedAt, &r.IsActive,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, mapScanErr(err)
	}
	if orderID != nil {
		r.Payment.GatewayOrderID = *orderID
	}
	if paymentID != nil {
		r.Payment.GatewayPaymentID = *paymentID
	}
	if sig != nil {
		r.Payment.Signature = *sig
	}
	if method != nil {
		r.Payment.Method = *method
	}
	if failureReason != nil {
		r.Payment.FailureReason = *failureReason
	}
	return r, nil
}

func (r *purchaseRepo) Save(ctx context.Context, tx repository.Tx, rec *model.PurchaseRecord) error {
	const q = `
INSERT INTO purchases (
  id, student_id, item_id, item_kind, state, amount_paise, currency, gateway_order_id, gateway_payment_id, signature, payment_method, paid_at, failure_reason, failed_at, access_granted_at, purchased_at, is_active, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),NULLIF($9,''),NULLIF($10,''),NULLIF($11,''),$12,NULLIF($13,''),$14,$15,$16,$17,$18,$19
) ON CONFLICT (id) DO UPDATE SET
  state=$5, amount_paise=$6, currency=$7, gateway_order_id=NULLIF($8,''), gateway_payment_id=NULLIF($9,''), signature=NULLIF($10,''), payment_method=NULLIF($11,''), paid_at=$12, failure_reason=NULLIF($13,''), failed_at=$14, access_granted_at=$15, purchased_at=$16, is_active=$17, updated_at=$19;`

	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.StudentID, rec.ItemID, rec.ItemKind, rec.State,
		rec.Payment.AmountPaise, rec.Payment.Currency,
		rec.Payment.GatewayOrderID, rec.Payment.GatewayPaymentID, rec.Payment.Signature, rec.Payment.Method,
		rec.Payment.PaidAt, rec.Payment.FailureReason, rec.Payment.FailedAt,
		rec.AccessGrantedAt, rec.PurchasedAt, rec.IsActive, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PurchaseRecord, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) FindByStudentAndItem(ctx context.Context, tx repository.Tx, studentID, itemID string, states ...model.PurchaseState) (*model.PurchaseRecord, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE student_id=$1 AND item_id=$2`
	args := []interface{}{studentID, itemID}
	if len(states) > 0 {
		ph := make([]string, len(states))
		for i, s := range states {
			args = append(args, string(s))
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		q += " AND state IN (" + strings.Join(ph, ",") + ")"
	}
	q += ` ORDER BY created_at DESC LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", args...)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) FindByGatewayOrderID(ctx context.Context, tx repository.Tx, studentID, orderID string) (*model.PurchaseRecord, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE student_id=$1 AND gateway_order_id=$2 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", studentID, orderID)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.PurchaseRecord, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE student_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, nil, q, studentID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PurchaseRecord
	for rows.Next() {
		rec, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CompletePurchase atomically transitions pending -> completed with no
// payment leg (free items).
func (r *purchaseRepo) CompletePurchase(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
UPDATE purchases
   SET state = 'completed',
       purchased_at = $2,
       access_granted_at = $2,
       is_active = TRUE,
       updated_at = $2
 WHERE id = $1
   AND state = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

// CompletePayment sets the payment fields and transitions
// pending -> completed in a single conditional write. A duplicate verify
// observes zero rows affected and no-ops.
func (r *purchaseRepo) CompletePayment(ctx context.Context, tx repository.Tx, id string, paymentID, signature, method string, at time.Time) (bool, error) {
	const q = `
UPDATE purchases
   SET state = 'completed',
       gateway_payment_id = $2,
       signature = $3,
       payment_method = NULLIF($4,''),
       paid_at = $5,
       purchased_at = $5,
       access_granted_at = $5,
       failure_reason = NULL,
       failed_at = NULL,
       is_active = TRUE,
       updated_at = $5
 WHERE id = $1
   AND state = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, paymentID, signature, method, at)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) MarkFailed(ctx context.Context, tx repository.Tx, id, reason string, at time.Time) (bool, error) {
	const q = `
UPDATE purchases
   SET state = 'failed',
       failure_reason = $2,
       failed_at = $3,
       updated_at = $3
 WHERE id = $1
   AND state = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, reason, at)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) Cancel(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
UPDATE purchases
   SET state = 'cancelled',
       updated_at = $2
 WHERE id = $1
   AND state = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
