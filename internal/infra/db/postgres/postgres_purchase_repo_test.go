//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/domain/ports/repository"
)

func TestPurchaseRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	// 1. Setup
	ctx := context.Background()
	repo := NewPurchaseRepo(testPool)
	itemRepo := NewItemRepo(testPool)
	studentRepo := NewStudentRepo(testPool)

	student1, _ := model.NewStudent("", "one@school.test", "Student One")
	student2, _ := model.NewStudent("", "two@school.test", "Student Two")
	course, _ := model.NewItem("course-1", model.ItemKindCourse, "Algebra II", 49900)

	// Helper to set up a clean state with prerequisites
	setupPrerequisites := func(t *testing.T) {
		cleanup(t)
		// Prerequisites must be saved first because of foreign keys
		if err := studentRepo.Save(ctx, student1); err != nil {
			t.Fatalf("failed to save student1: %v", err)
		}
		if err := studentRepo.Save(ctx, student2); err != nil {
			t.Fatalf("failed to save student2: %v", err)
		}
		if err := itemRepo.Save(ctx, nil, course); err != nil {
			t.Fatalf("failed to save course: %v", err)
		}
	}

	newPending := func(t *testing.T, studentID, orderID string) *model.PurchaseRecord {
		t.Helper()
		rec, err := model.NewPurchaseRecord(studentID, course.ID, model.ItemKindCourse)
		if err != nil {
			t.Fatal(err)
		}
		if err := rec.AttachOrder(orderID, 49900, "INR"); err != nil {
			t.Fatal(err)
		}
		if err := repo.Save(ctx, nil, rec); err != nil {
			t.Fatalf("failed to save purchase: %v", err)
		}
		return rec
	}

	t.Run("should save and round-trip a pending record", func(t *testing.T) {
		setupPrerequisites(t)
		rec := newPending(t, student1.ID, "order_rt")

		got, err := repo.FindByID(ctx, nil, rec.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if got.State != model.PurchaseStatePending {
			t.Errorf("state = %s, want pending", got.State)
		}
		if got.Payment.GatewayOrderID != "order_rt" || got.Payment.AmountPaise != 49900 {
			t.Errorf("payment leg = %+v", got.Payment)
		}
	})

	t.Run("should find records by student and gateway order id", func(t *testing.T) {
		setupPrerequisites(t)
		rec := newPending(t, student1.ID, "order_find")

		got, err := repo.FindByGatewayOrderID(ctx, nil, student1.ID, "order_find")
		if err != nil {
			t.Fatalf("FindByGatewayOrderID failed: %v", err)
		}
		if got.ID != rec.ID {
			t.Errorf("found %s, want %s", got.ID, rec.ID)
		}

		// Scoped to the owning student only
		if _, err := repo.FindByGatewayOrderID(ctx, nil, student2.ID, "order_find"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound for another student", err)
		}

		byPair, err := repo.FindByStudentAndItem(ctx, nil, student1.ID, course.ID, model.PurchaseStatePending)
		if err != nil {
			t.Fatalf("FindByStudentAndItem failed: %v", err)
		}
		if byPair.ID != rec.ID {
			t.Errorf("found %s, want %s", byPair.ID, rec.ID)
		}
	})

	t.Run("complete payment is a one-shot conditional update", func(t *testing.T) {
		setupPrerequisites(t)
		rec := newPending(t, student1.ID, "order_cp")
		now := time.Now()

		won, err := repo.CompletePayment(ctx, nil, rec.ID, "pay_1", "sig_1", "upi", now)
		if err != nil {
			t.Fatalf("CompletePayment failed: %v", err)
		}
		if !won {
			t.Fatal("first CompletePayment should win")
		}

		// Second attempt loses without error
		won, err = repo.CompletePayment(ctx, nil, rec.ID, "pay_2", "sig_2", "card", now)
		if err != nil {
			t.Fatalf("second CompletePayment errored: %v", err)
		}
		if won {
			t.Error("second CompletePayment must not win")
		}

		got, err := repo.FindByID(ctx, nil, rec.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.State != model.PurchaseStateCompleted {
			t.Errorf("state = %s, want completed", got.State)
		}
		if got.Payment.GatewayPaymentID != "pay_1" {
			t.Errorf("payment id = %q, want the winner's pay_1", got.Payment.GatewayPaymentID)
		}
		if got.PurchasedAt == nil || got.AccessGrantedAt == nil {
			t.Error("completion timestamps not persisted")
		}
	})

	t.Run("mark failed and cancel only touch pending rows", func(t *testing.T) {
		setupPrerequisites(t)
		now := time.Now()

		failed := newPending(t, student1.ID, "order_fail")
		ok, err := repo.MarkFailed(ctx, nil, failed.ID, "signature mismatch", now)
		if err != nil || !ok {
			t.Fatalf("MarkFailed = (%v, %v), want (true, nil)", ok, err)
		}
		got, _ := repo.FindByID(ctx, nil, failed.ID)
		if got.State != model.PurchaseStateFailed || got.Payment.FailureReason != "signature mismatch" {
			t.Errorf("record = %+v, want failed with reason", got)
		}

		// Cancel after failure is a no-op
		ok, err = repo.Cancel(ctx, nil, failed.ID, now)
		if err != nil {
			t.Fatalf("Cancel errored: %v", err)
		}
		if ok {
			t.Error("Cancel of a failed record must not report success")
		}
	})

	t.Run("unique index rejects a second completed active record", func(t *testing.T) {
		setupPrerequisites(t)
		now := time.Now()

		first := newPending(t, student1.ID, "order_u1")
		if ok, err := repo.CompletePayment(ctx, nil, first.ID, "pay_u1", "sig", "upi", now); err != nil || !ok {
			t.Fatalf("CompletePayment = (%v, %v)", ok, err)
		}

		second := newPending(t, student1.ID, "order_u2")
		_, err := repo.CompletePayment(ctx, nil, second.ID, "pay_u2", "sig", "upi", now)
		if err == nil {
			t.Fatal("expected unique violation completing a second record for the same item")
		}
	})

	t.Run("list returns newest first", func(t *testing.T) {
		setupPrerequisites(t)
		a := newPending(t, student1.ID, "order_l1")
		if _, err := repo.Cancel(ctx, nil, a.ID, time.Now()); err != nil {
			t.Fatal(err)
		}
		b := newPending(t, student1.ID, "order_l2")

		recs, err := repo.ListByStudent(ctx, student1.ID)
		if err != nil {
			t.Fatalf("ListByStudent failed: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("len = %d, want 2", len(recs))
		}
		if recs[0].ID != b.ID {
			t.Errorf("first record = %s, want newest %s", recs[0].ID, b.ID)
		}
	})

	t.Run("works inside a transaction", func(t *testing.T) {
		setupPrerequisites(t)
		rec := newPending(t, student1.ID, "order_tx")
		tm := NewTxManager(testPool)

		err := tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
			won, err := repo.CompletePayment(ctx, tx, rec.ID, "pay_tx", "sig", "upi", time.Now())
			if err != nil {
				return err
			}
			if !won {
				t.Error("CompletePayment inside tx should win")
			}
			if _, err := itemRepo.AppendEnrolled(ctx, tx, course.ID, student1.ID); err != nil {
				return err
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithTx failed: %v", err)
		}

		enrolled, err := itemRepo.IsEnrolled(ctx, nil, course.ID, student1.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !enrolled {
			t.Error("enrollment not committed")
		}
	})
}
