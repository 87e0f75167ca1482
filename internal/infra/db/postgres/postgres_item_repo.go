package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/model"
	"course-purchase-platform/internal/domain/ports/repository"
)

var _ repository.ItemRepository = (*itemRepo)(nil)

type itemRepo struct{ pool *pgxpool.Pool }

func NewItemRepo(pool *pgxpool.Pool) *itemRepo {
	return &itemRepo{pool: pool}
}

const itemColumns = `id, kind, title, description, price_paise, currency, active, created_at, updated_at`

func scanItem(row pgx.Row) (*model.Item, error) {
	it := &model.Item{}
	if err := row.Scan(&it.ID, &it.Kind, &it.Title, &it.Description, &it.PricePaise, &it.Currency, &it.Active, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return it, nil
}

func (r *itemRepo) Save(ctx context.Context, tx repository.Tx, item *model.Item) error {
	const q = `
INSERT INTO items (id, kind, title, description, price_paise, currency, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  kind=$2, title=$3, description=$4, price_paise=$5, currency=$6, active=$7, updated_at=$9;`

	_, err := execSQL(ctx, r.pool, tx, q,
		item.ID, item.Kind, item.Title, item.Description, item.PricePaise, item.Currency, item.Active, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *itemRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Item, error) {
	q := `SELECT ` + itemColumns + ` FROM items WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanItem(row)
}

func (r *itemRepo) List(ctx context.Context) ([]*model.Item, error) {
	q := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at;`
	rows, err := queryRows(ctx, r.pool, nil, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AppendEnrolled inserts the (item, student) pair; the primary key makes
// the append-if-absent semantics a single statement.
func (r *itemRepo) AppendEnrolled(ctx context.Context, tx repository.Tx, itemID, studentID string) (bool, error) {
	const q = `
INSERT INTO item_enrollments (item_id, student_id)
VALUES ($1, $2)
ON CONFLICT (item_id, student_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, itemID, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *itemRepo) IsEnrolled(ctx context.Context, tx repository.Tx, itemID, studentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM item_enrollments WHERE item_id=$1 AND student_id=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, itemID, studentID)
	if err != nil {
		return false, err
	}
	var enrolled bool
	if err := row.Scan(&enrolled); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return enrolled, nil
}
