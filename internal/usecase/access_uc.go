package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/domain/ports/repository"
)

// AccessDecision answers whether a student may open an item and why.
type AccessDecision struct {
	HasAccess bool
	IsFree    bool
	Record    *model.PurchaseRecord
}

type AccessUseCase interface {
	HasAccess(ctx context.Context, studentID, itemID string) (*AccessDecision, error)
	ListItems(ctx context.Context, onlyActive bool) ([]*model.Item, error)
}

var _ AccessUseCase = (*accessUC)(nil)

type accessUC struct {
	purchases repository.PurchaseRepository
	items     repository.ItemRepository
	log       zerolog.Logger
}

func NewAccessUseCase(purchases repository.PurchaseRepository, items repository.ItemRepository, log zerolog.Logger) *accessUC {
	return &accessUC{
		purchases: purchases,
		items:     items,
		log:       log.With().Str("component", "access_uc").Logger(),
	}
}

// HasAccess grants free items to everyone and paid items only to
// students holding an active completed purchase.
func (u *accessUC) HasAccess(ctx context.Context, studentID, itemID string) (*AccessDecision, error) {
	if studentID == "" || itemID == "" {
		return nil, fmt.Errorf("%w: student id and item id are required", domain.ErrInvalidArgument)
	}

	item, err := u.items.FindByID(ctx, nil, itemID)
	if err != nil {
		return nil, err
	}
	if item.IsFree() {
		return &AccessDecision{HasAccess: true, IsFree: true}, nil
	}

	rec, err := u.purchases.FindByStudentAndItem(ctx, nil, studentID, itemID, model.PurchaseStateCompleted)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &AccessDecision{}, nil
		}
		return nil, err
	}
	return &AccessDecision{HasAccess: rec.GrantsAccess(), Record: rec}, nil
}

func (u *accessUC) ListItems(ctx context.Context, onlyActive bool) ([]*model.Item, error) {
	items, err := u.items.List(ctx)
	if err != nil {
		return nil, err
	}
	if !onlyActive {
		return items, nil
	}
	active := make([]*model.Item, 0, len(items))
	for _, it := range items {
		if it.Active {
			active = append(active, it)
		}
	}
	return active, nil
}
