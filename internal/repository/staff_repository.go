package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/persistence"
)

// StaffRepository handles persistence for staff records.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	GetByID(ctx context.Context, id string) (*domain.Staff, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error)
	Count(ctx context.Context, filter StaffFilter) (int64, error)
	Update(ctx context.Context, id string, patch domain.StaffPatch) (*domain.Staff, error)
	Deactivate(ctx context.Context, id string) error
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	BusinessID  *string
	FranchiseID *string
	Limit       int
	Offset      int
}

const staffColumns = `id::text, business_id, franchise_id, name, email, role, active, created_at, updated_at`

type staffRepository struct {
	pool persistence.Queryer
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool persistence.Queryer) StaffRepository {
	return &staffRepository{pool: pool}
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	const query = `
        INSERT INTO staff (business_id, franchise_id, name, email, role, active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id::text, created_at, updated_at`

	exec := persistence.QueryerFromContext(ctx, r.pool)
	err := exec.QueryRow(ctx, query,
		staff.BusinessID,
		staff.FranchiseID,
		staff.Name,
		nullableString(staff.Email),
		string(staff.Role),
		staff.Active,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
	return translatePgError(err)
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id=$1`

	exec := persistence.QueryerFromContext(ctx, r.pool)
	staff, err := scanStaff(exec.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translatePgError(err)
	}
	return staff, nil
}

// Exists takes a share lock on the row so that, inside a transaction, the
// record cannot disappear before the caller's dependent write commits.
func (r *staffRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT id::text FROM staff WHERE id=$1 FOR SHARE`

	exec := persistence.QueryerFromContext(ctx, r.pool)
	var found string
	if err := exec.QueryRow(ctx, query, id).Scan(&found); err != nil {
		err = translatePgError(err)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error) {
	where, args := staffWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit)
	limitPlaceholder := len(args)
	args = append(args, offset)
	offsetPlaceholder := len(args)

	query := `SELECT ` + staffColumns + ` FROM staff` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", limitPlaceholder, offsetPlaceholder)

	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := make([]domain.Staff, 0, limit)
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, translatePgError(err)
		}
		result = append(result, *staff)
	}
	return result, translatePgError(rows.Err())
}

func (r *staffRepository) Count(ctx context.Context, filter StaffFilter) (int64, error) {
	where, args := staffWhere(filter)
	query := `SELECT COUNT(*) FROM staff` + where

	exec := persistence.QueryerFromContext(ctx, r.pool)
	var total int64
	if err := exec.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, translatePgError(err)
	}
	return total, nil
}

func (r *staffRepository) Update(ctx context.Context, id string, patch domain.StaffPatch) (*domain.Staff, error) {
	args := []any{}
	sets := []string{}

	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name=$%d", len(args)))
	}
	if patch.EmailSet {
		args = append(args, nullableString(patch.Email))
		sets = append(sets, fmt.Sprintf("email=$%d", len(args)))
	}
	if patch.Role != nil {
		args = append(args, string(*patch.Role))
		sets = append(sets, fmt.Sprintf("role=$%d", len(args)))
	}
	if patch.Active != nil {
		args = append(args, *patch.Active)
		sets = append(sets, fmt.Sprintf("active=$%d", len(args)))
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE staff SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), staffColumns)

	exec := persistence.QueryerFromContext(ctx, r.pool)
	staff, err := scanStaff(exec.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translatePgError(err)
	}
	return staff, nil
}

func (r *staffRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE staff SET active=FALSE, updated_at=NOW() WHERE id=$1`

	exec := persistence.QueryerFromContext(ctx, r.pool)
	cmd, err := exec.Exec(ctx, query, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func staffWhere(filter StaffFilter) (string, []any) {
	args := []any{}
	clauses := []string{}

	if filter.BusinessID != nil {
		args = append(args, *filter.BusinessID)
		clauses = append(clauses, fmt.Sprintf("business_id=$%d", len(args)))
	}
	if filter.FranchiseID != nil {
		args = append(args, *filter.FranchiseID)
		clauses = append(clauses, fmt.Sprintf("franchise_id=$%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var (
		staff     domain.Staff
		email     sql.NullString
		role      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&staff.ID,
		&staff.BusinessID,
		&staff.FranchiseID,
		&staff.Name,
		&email,
		&role,
		&staff.Active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if email.Valid {
		staff.Email = &email.String
	}
	staff.Role = domain.StaffRole(role)
	staff.CreatedAt = createdAt.UTC()
	staff.UpdatedAt = updatedAt.UTC()
	return &staff, nil
}
