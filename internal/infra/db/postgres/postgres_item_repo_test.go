//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
)

func TestItemRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewItemRepo(testPool)
	studentRepo := NewStudentRepo(testPool)

	t.Run("should save and round-trip an item", func(t *testing.T) {
		cleanup(t)
		item, _ := model.NewItem("course-1", model.ItemKindCourse, "Algebra II", 49900)
		item.Description = "Quadratics and beyond"

		if err := repo.Save(ctx, nil, item); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, "course-1")
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if got.Title != "Algebra II" || got.PricePaise != 49900 || got.Description != "Quadratics and beyond" {
			t.Errorf("item = %+v", got)
		}

		if _, err := repo.FindByID(ctx, nil, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("save updates in place", func(t *testing.T) {
		cleanup(t)
		item, _ := model.NewItem("course-1", model.ItemKindCourse, "Algebra II", 49900)
		if err := repo.Save(ctx, nil, item); err != nil {
			t.Fatal(err)
		}

		item.PricePaise = 39900
		item.Active = false
		if err := repo.Save(ctx, nil, item); err != nil {
			t.Fatalf("second Save failed: %v", err)
		}

		got, _ := repo.FindByID(ctx, nil, "course-1")
		if got.PricePaise != 39900 || got.Active {
			t.Errorf("item = %+v, want updated price and inactive", got)
		}
	})

	t.Run("enrollment is idempotent", func(t *testing.T) {
		cleanup(t)
		item, _ := model.NewItem("notes-1", model.ItemKindNotes, "Revision notes", 0)
		student, _ := model.NewStudent("", "one@school.test", "Student One")
		if err := repo.Save(ctx, nil, item); err != nil {
			t.Fatal(err)
		}
		if err := studentRepo.Save(ctx, student); err != nil {
			t.Fatal(err)
		}

		added, err := repo.AppendEnrolled(ctx, nil, item.ID, student.ID)
		if err != nil {
			t.Fatalf("AppendEnrolled failed: %v", err)
		}
		if !added {
			t.Error("first enrollment should report added")
		}

		added, err = repo.AppendEnrolled(ctx, nil, item.ID, student.ID)
		if err != nil {
			t.Fatalf("second AppendEnrolled errored: %v", err)
		}
		if added {
			t.Error("second enrollment must be a no-op")
		}

		enrolled, err := repo.IsEnrolled(ctx, nil, item.ID, student.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !enrolled {
			t.Error("IsEnrolled = false after enrollment")
		}
	})

	t.Run("list returns all items", func(t *testing.T) {
		cleanup(t)
		a, _ := model.NewItem("course-1", model.ItemKindCourse, "Algebra II", 49900)
		b, _ := model.NewItem("notes-1", model.ItemKindNotes, "Revision notes", 0)
		if err := repo.Save(ctx, nil, a); err != nil {
			t.Fatal(err)
		}
		if err := repo.Save(ctx, nil, b); err != nil {
			t.Fatal(err)
		}

		items, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("len = %d, want 2", len(items))
		}
	})
}
