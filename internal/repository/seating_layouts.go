package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

// 员工、座位和座位表以 jsonb 的形式存储，快照写入后不再修改
type layoutColumns struct {
	employees []byte
	desks     []byte
	slots     []byte
}

func encodeLayout(layout *domain.SeatingLayout) (*layoutColumns, error) {
	var (
		cols layoutColumns
		err  error
	)

	if cols.employees, err = json.Marshal(layout.Employees); err != nil {
		return nil, err
	}
	if cols.desks, err = json.Marshal(layout.Desks); err != nil {
		return nil, err
	}
	if cols.slots, err = json.Marshal(layout.Slots); err != nil {
		return nil, err
	}

	return &cols, nil
}

func (cols *layoutColumns) decode(layout *domain.SeatingLayout) error {
	if err := json.Unmarshal(cols.employees, &layout.Employees); err != nil {
		return err
	}
	if err := json.Unmarshal(cols.desks, &layout.Desks); err != nil {
		return err
	}
	return json.Unmarshal(cols.slots, &layout.Slots)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertSeatingLayout(ctx context.Context, q queryRower, layout *domain.SeatingLayout) error {
	cols, err := encodeLayout(layout)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO seating_layouts (
			job_id, name, employees, desks, slots,
			fitness, conflict_ratio, team_seat_ratio, prior_seat_ratio
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	args := []any{
		layout.JobID, layout.Name, cols.employees, cols.desks, cols.slots,
		layout.Fitness, layout.ConflictRatio, layout.TeamSeatRatio, layout.PriorSeatRatio,
	}

	return q.QueryRowContext(ctx, query, args...).Scan(&layout.ID, &layout.CreatedAt)
}

func (r *Repository) InsertSeatingLayout(layout *domain.SeatingLayout) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	return insertSeatingLayout(ctx, r.dbpool, layout)
}

func (r *Repository) GetSeatingLayoutByID(id int64) (*domain.SeatingLayout, error) {
	query := `
		SELECT
			job_id, name, employees, desks, slots,
			fitness, conflict_ratio, team_seat_ratio, prior_seat_ratio, created_at
		FROM seating_layouts WHERE id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	layout := &domain.SeatingLayout{ID: id}
	var cols layoutColumns
	dst := []any{
		&layout.JobID, &layout.Name, &cols.employees, &cols.desks, &cols.slots,
		&layout.Fitness, &layout.ConflictRatio, &layout.TeamSeatRatio, &layout.PriorSeatRatio, &layout.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := cols.decode(layout); err != nil {
		return nil, err
	}

	return layout, nil
}

// GetLatestSeatingLayoutID 返回最近一次保存的座位表，用作第二天排座的参考
func (r *Repository) GetLatestSeatingLayoutID() (int64, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, `SELECT id FROM seating_layouts ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

func (r *Repository) GetAllSeatingLayoutMetas() ([]*domain.SeatingLayoutMeta, error) {
	query := `
		SELECT id, job_id, name, fitness, created_at
		FROM seating_layouts
		ORDER BY created_at DESC, id DESC
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metas := make([]*domain.SeatingLayoutMeta, 0)
	for rows.Next() {
		meta := &domain.SeatingLayoutMeta{}
		if err := rows.Scan(&meta.ID, &meta.JobID, &meta.Name, &meta.Fitness, &meta.CreatedAt); err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metas, nil
}

func (r *Repository) DeleteSeatingLayout(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, `DELETE FROM seating_layouts WHERE id = $1`, id)
	return err
}
