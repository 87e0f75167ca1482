package repository

import (
	"context"

	"course-purchase-platform/internal/domain/model"
)

type ItemRepository interface {
	Save(ctx context.Context, tx Tx, item *model.Item) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Item, error)
	List(ctx context.Context) ([]*model.Item, error)
	// AppendEnrolled adds the student to the item's enrolled list if absent.
	// Returns false when the student was already enrolled.
	AppendEnrolled(ctx context.Context, tx Tx, itemID, studentID string) (bool, error)
	IsEnrolled(ctx context.Context, tx Tx, itemID, studentID string) (bool, error)
}
