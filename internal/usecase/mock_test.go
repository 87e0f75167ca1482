//go:build !integration

package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/domain/ports/adapter"
	"course-purchase-platform/internal/domain/ports/repository"
)

// --- purchase repository ---

type mockPurchaseRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.PurchaseRecord

	SaveFunc            func(ctx context.Context, tx repository.Tx, rec *model.PurchaseRecord) error
	CompletePaymentFunc func(ctx context.Context, tx repository.Tx, id, paymentID, signature, method string, at time.Time) (bool, error)
}

func newMockPurchaseRepo() *mockPurchaseRepo {
	return &mockPurchaseRepo{byID: make(map[string]*model.PurchaseRecord)}
}

func (m *mockPurchaseRepo) clone(rec *model.PurchaseRecord) *model.PurchaseRecord {
	cp := *rec
	return &cp
}

func (m *mockPurchaseRepo) Save(ctx context.Context, tx repository.Tx, rec *model.PurchaseRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[rec.ID] = m.clone(rec)
	return nil
}

func (m *mockPurchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PurchaseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.clone(rec), nil
}

func (m *mockPurchaseRepo) FindByStudentAndItem(ctx context.Context, tx repository.Tx, studentID, itemID string, states ...model.PurchaseState) (*model.PurchaseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var newest *model.PurchaseRecord
	for _, rec := range m.byID {
		if rec.StudentID != studentID || rec.ItemID != itemID {
			continue
		}
		match := len(states) == 0
		for _, s := range states {
			if rec.State == s {
				match = true
			}
		}
		if !match {
			continue
		}
		if newest == nil || rec.CreatedAt.After(newest.CreatedAt) {
			newest = rec
		}
	}
	if newest == nil {
		return nil, domain.ErrNotFound
	}
	return m.clone(newest), nil
}

func (m *mockPurchaseRepo) FindByGatewayOrderID(ctx context.Context, tx repository.Tx, studentID, orderID string) (*model.PurchaseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.byID {
		if rec.StudentID == studentID && rec.Payment.GatewayOrderID == orderID {
			return m.clone(rec), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPurchaseRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.PurchaseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PurchaseRecord
	for _, rec := range m.byID {
		if rec.StudentID == studentID {
			out = append(out, m.clone(rec))
		}
	}
	return out, nil
}

func (m *mockPurchaseRepo) CompletePurchase(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok || rec.State != model.PurchaseStatePending {
		return false, nil
	}
	if err := rec.Complete(at); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockPurchaseRepo) CompletePayment(ctx context.Context, tx repository.Tx, id, paymentID, signature, method string, at time.Time) (bool, error) {
	if m.CompletePaymentFunc != nil {
		return m.CompletePaymentFunc(ctx, tx, id, paymentID, signature, method, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok || rec.State != model.PurchaseStatePending {
		return false, nil
	}
	if err := rec.CompletePayment(paymentID, signature, method, at); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockPurchaseRepo) MarkFailed(ctx context.Context, tx repository.Tx, id, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok || rec.State != model.PurchaseStatePending {
		return false, nil
	}
	if err := rec.Fail(reason, at); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockPurchaseRepo) Cancel(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok || rec.State != model.PurchaseStatePending {
		return false, nil
	}
	if err := rec.Cancel(at); err != nil {
		return false, err
	}
	return true, nil
}

// --- item repository ---

type mockItemRepo struct {
	mu       sync.RWMutex
	byID     map[string]*model.Item
	enrolled map[string]map[string]bool
}

func newMockItemRepo(items ...*model.Item) *mockItemRepo {
	m := &mockItemRepo{
		byID:     make(map[string]*model.Item),
		enrolled: make(map[string]map[string]bool),
	}
	for _, it := range items {
		m.byID[it.ID] = it
	}
	return m
}

func (m *mockItemRepo) Save(ctx context.Context, tx repository.Tx, item *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[item.ID] = item
	return nil
}

func (m *mockItemRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockItemRepo) List(ctx context.Context) ([]*model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Item
	for _, it := range m.byID {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockItemRepo) AppendEnrolled(ctx context.Context, tx repository.Tx, itemID, studentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrolled[itemID] == nil {
		m.enrolled[itemID] = make(map[string]bool)
	}
	if m.enrolled[itemID][studentID] {
		return false, nil
	}
	m.enrolled[itemID][studentID] = true
	return true, nil
}

func (m *mockItemRepo) IsEnrolled(ctx context.Context, tx repository.Tx, itemID, studentID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enrolled[itemID][studentID], nil
}

// --- adapters ---

type mockGateway struct {
	CreateOrderFunc func(ctx context.Context, amountPaise int64, currency, receipt string) (*adapter.PaymentOrder, error)

	mu    sync.Mutex
	calls int
}

func (m *mockGateway) Name() string { return "mock-gateway" }

func (m *mockGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*adapter.PaymentOrder, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, amountPaise, currency, receipt)
	}
	return &adapter.PaymentOrder{
		ID:          fmt.Sprintf("order_test_%d", n),
		AmountPaise: amountPaise,
		Currency:    currency,
		Receipt:     receipt,
	}, nil
}

type mockVerifier struct {
	VerifyFunc func(orderID, paymentID, signature string) (bool, error)
}

func (m *mockVerifier) Name() string { return "mock-verifier" }

func (m *mockVerifier) Verify(orderID, paymentID, signature string) (bool, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(orderID, paymentID, signature)
	}
	return true, nil
}

// --- transaction manager and locker ---

// mockTxManager runs the callback directly; the mock repositories are
// already atomic per call.
type mockTxManager struct{}

func (mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type mockLocker struct {
	mu   sync.Mutex
	held map[string]string

	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]string)}
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.held[key]; taken {
		return "", domain.ErrPurchaseLocked
	}
	token := fmt.Sprintf("tok-%d", len(m.held)+1)
	m.held[key] = token
	return token, nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}
