package repository

import (
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

func (r *Repository) GetAllDesks() ([]*domain.Desk, error) {
	query := `
		SELECT id, row_number, col_number, team, linear_index, created_at
		FROM desks
		ORDER BY linear_index
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	desks := make([]*domain.Desk, 0)
	for rows.Next() {
		desk := &domain.Desk{}
		if err := rows.Scan(&desk.ID, &desk.Row, &desk.Col, &desk.Team, &desk.Index, &desk.CreatedAt); err != nil {
			return nil, err
		}
		desks = append(desks, desk)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return desks, nil
}

// ReplaceDesks 用新的座位表整体替换原有的座位，调用方需要事先校验坐标并计算好线性编号
func (r *Repository) ReplaceDesks(desks []*domain.Desk) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM desks`); err != nil {
		return err
	}

	query := `
		INSERT INTO desks (row_number, col_number, team, linear_index)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	for _, desk := range desks {
		args := []any{desk.Row, desk.Col, desk.Team, desk.Index}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&desk.ID, &desk.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
