package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"course-purchase-platform/internal/config"
	"course-purchase-platform/internal/domain/model"
	pg "course-purchase-platform/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	itemRepo := pg.NewItemRepo(pool)
	studentRepo := pg.NewStudentRepo(pool)

	// If items already exist, do nothing
	items, err := itemRepo.List(ctx)
	if err != nil {
		log.Fatalf("list items: %v", err)
	}
	if len(items) > 0 {
		fmt.Printf("%d items already present. No changes.\n", len(items))
		for _, it := range items {
			fmt.Printf("  - %s [%s] %s (%d paise)\n", it.ID, it.Kind, it.Title, it.PricePaise)
		}
		return
	}

	// Seed a small catalog for exercising the purchase flow
	seed := []struct {
		ID    string
		Kind  model.ItemKind
		Title string
		Price int64
	}{
		{"course-algebra-2", model.ItemKindCourse, "Algebra II", 49_900},
		{"course-physics-1", model.ItemKindCourse, "Mechanics", 59_900},
		{"notes-algebra-2", model.ItemKindNotes, "Algebra II revision notes", 9_900},
		{"notes-sample", model.ItemKindNotes, "Free sample notes", 0},
	}
	for _, s := range seed {
		item, err := model.NewItem(s.ID, s.Kind, s.Title, s.Price)
		if err != nil {
			log.Fatalf("new item %s: %v", s.ID, err)
		}
		if err := itemRepo.Save(ctx, nil, item); err != nil {
			log.Fatalf("save item %s: %v", s.ID, err)
		}
		fmt.Printf("seeded item %s (%d paise)\n", s.ID, s.Price)
	}

	// One test student so dev tokens have a subject to point at
	student, err := model.NewStudent("student-dev", "dev@school.test", "Dev Student")
	if err != nil {
		log.Fatalf("new student: %v", err)
	}
	if err := studentRepo.Save(ctx, student); err != nil {
		log.Fatalf("save student: %v", err)
	}
	fmt.Printf("seeded student %s\n", student.ID)
}
