package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/domain/ports/repository"
)

var _ repository.StudentRepository = (*studentRepo)(nil)

type studentRepo struct{ pool *pgxpool.Pool }

func NewStudentRepo(pool *pgxpool.Pool) *studentRepo {
	return &studentRepo{pool: pool}
}

func (r *studentRepo) Save(ctx context.Context, s *model.Student) error {
	const q = `
INSERT INTO students (id, email, full_name, registered_at, last_active_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET email=$2, full_name=$3, last_active_at=$5;`

	if _, err := execSQL(ctx, r.pool, nil, q, s.ID, s.Email, s.FullName, s.RegisteredAt, nullableTime(s.LastActiveAt)); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *studentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	const q = `SELECT id, email, full_name, registered_at, COALESCE(last_active_at, 'epoch'::timestamptz) FROM students WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	s := &model.Student{}
	if err := row.Scan(&s.ID, &s.Email, &s.FullName, &s.RegisteredAt, &s.LastActiveAt); err != nil {
		return nil, mapScanErr(err)
	}
	return s, nil
}

func (r *studentRepo) FindByEmail(ctx context.Context, email string) (*model.Student, error) {
	const q = `SELECT id, email, full_name, registered_at, COALESCE(last_active_at, 'epoch'::timestamptz) FROM students WHERE email=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, email)
	if err != nil {
		return nil, err
	}
	s := &model.Student{}
	if err := row.Scan(&s.ID, &s.Email, &s.FullName, &s.RegisteredAt, &s.LastActiveAt); err != nil {
		return nil, mapScanErr(err)
	}
	return s, nil
}
