package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/persistence"
)

// ScheduleRepository persists schedule intervals.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.Schedule) error
	ListByStaff(ctx context.Context, staffID string) ([]domain.Schedule, error)
}

type scheduleRepository struct {
	pool persistence.Queryer
}

// NewScheduleRepository constructs repository.
func NewScheduleRepository(pool persistence.Queryer) ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	const query = `
        INSERT INTO schedules (staff_id, start_at, end_at, notes)
        VALUES ($1,$2,$3,$4)
        RETURNING id::text, created_at, updated_at`

	exec := persistence.QueryerFromContext(ctx, r.pool)
	err := exec.QueryRow(ctx, query,
		schedule.StaffID,
		schedule.Start,
		schedule.End,
		nullableString(schedule.Notes),
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
	return translatePgError(err)
}

func (r *scheduleRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.Schedule, error) {
	const query = `
        SELECT id::text, staff_id::text, start_at, end_at, notes, created_at, updated_at
        FROM schedules WHERE staff_id=$1
        ORDER BY start_at ASC, id ASC`

	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, staffID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.Schedule{}
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, translatePgError(err)
		}
		result = append(result, *schedule)
	}
	return result, translatePgError(rows.Err())
}

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var (
		schedule  domain.Schedule
		notes     sql.NullString
		start     time.Time
		end       time.Time
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&schedule.ID,
		&schedule.StaffID,
		&start,
		&end,
		&notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if notes.Valid {
		schedule.Notes = &notes.String
	}
	schedule.Start = start.UTC()
	schedule.End = end.UTC()
	schedule.CreatedAt = createdAt.UTC()
	schedule.UpdatedAt = updatedAt.UTC()
	return &schedule, nil
}
