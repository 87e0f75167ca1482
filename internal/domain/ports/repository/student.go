package repository

import (
	"context"

	"course-purchase-platform/internal/domain/model"
)

type StudentRepository interface {
	Save(ctx context.Context, student *model.Student) error
	FindByID(ctx context.Context, id string) (*model.Student, error)
	FindByEmail(ctx context.Context, email string) (*model.Student, error)
}
