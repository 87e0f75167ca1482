//go:build !integration

package web

import (
	"context"

	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/usecase"
)

type mockPurchaseUC struct {
	PurchaseFunc          func(ctx context.Context, studentID, itemID string) (*usecase.PurchaseResult, error)
	VerifyAndCompleteFunc func(ctx context.Context, studentID string, req usecase.VerifyRequest) (*model.PurchaseRecord, error)
	CancelFunc            func(ctx context.Context, studentID, purchaseID string) (*model.PurchaseRecord, error)
	ListByStudentFunc     func(ctx context.Context, studentID string) ([]*model.PurchaseRecord, error)
}

var _ usecase.PurchaseUseCase = (*mockPurchaseUC)(nil)

func (m *mockPurchaseUC) Purchase(ctx context.Context, studentID, itemID string) (*usecase.PurchaseResult, error) {
	return m.PurchaseFunc(ctx, studentID, itemID)
}

func (m *mockPurchaseUC) VerifyAndComplete(ctx context.Context, studentID string, req usecase.VerifyRequest) (*model.PurchaseRecord, error) {
	return m.VerifyAndCompleteFunc(ctx, studentID, req)
}

func (m *mockPurchaseUC) Cancel(ctx context.Context, studentID, purchaseID string) (*model.PurchaseRecord, error) {
	return m.CancelFunc(ctx, studentID, purchaseID)
}

func (m *mockPurchaseUC) ListByStudent(ctx context.Context, studentID string) ([]*model.PurchaseRecord, error) {
	return m.ListByStudentFunc(ctx, studentID)
}

type mockAccessUC struct {
	HasAccessFunc func(ctx context.Context, studentID, itemID string) (*usecase.AccessDecision, error)
	ListItemsFunc func(ctx context.Context, onlyActive bool) ([]*model.Item, error)
}

var _ usecase.AccessUseCase = (*mockAccessUC)(nil)

func (m *mockAccessUC) HasAccess(ctx context.Context, studentID, itemID string) (*usecase.AccessDecision, error) {
	return m.HasAccessFunc(ctx, studentID, itemID)
}

func (m *mockAccessUC) ListItems(ctx context.Context, onlyActive bool) ([]*model.Item, error) {
	return m.ListItemsFunc(ctx, onlyActive)
}
