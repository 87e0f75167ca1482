package repository

import (
	"context"
	"time"

	"course-purchase-platform/internal/domain/model"
)

// PurchaseRepository persists purchase records. The Complete/Fail/Cancel
// methods are single conditional writes keyed on the record's current
// pending state: they return false (no error) when the record was not
// pending anymore, so duplicate verify calls converge instead of racing.
type PurchaseRepository interface {
	Save(ctx context.Context, tx Tx, rec *model.PurchaseRecord) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PurchaseRecord, error)
	// FindByStudentAndItem returns the most recent record for (student, item)
	// whose state is in states. An empty states list matches any state.
	FindByStudentAndItem(ctx context.Context, tx Tx, studentID, itemID string, states ...model.PurchaseState) (*model.PurchaseRecord, error)
	FindByGatewayOrderID(ctx context.Context, tx Tx, studentID, orderID string) (*model.PurchaseRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.PurchaseRecord, error)

	// CompletePurchase transitions pending -> completed with no payment leg.
	CompletePurchase(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
	// CompletePayment sets the payment fields and transitions
	// pending -> completed in one atomic update.
	CompletePayment(ctx context.Context, tx Tx, id string, paymentID, signature, method string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, tx Tx, id, reason string, at time.Time) (bool, error)
	Cancel(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
}
