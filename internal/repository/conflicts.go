package repository

import (
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

func (r *Repository) GetAllConflicts() ([]*domain.Conflict, error) {
	query := `
		SELECT c.id, c.employee_id, e1.name, c.conflictor_id, e2.name, c.created_at
		FROM conflicts c
		JOIN employees e1 ON c.employee_id = e1.id
		JOIN employees e2 ON c.conflictor_id = e2.id
		ORDER BY c.id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts := make([]*domain.Conflict, 0)
	for rows.Next() {
		c := &domain.Conflict{}
		dst := []any{&c.ID, &c.EmployeeID, &c.EmployeeName, &c.ConflictorID, &c.ConflictorName, &c.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return conflicts, nil
}

// CreateConflict 冲突关系是对称的，存储时总是让编号较小的员工在前，
// 这样唯一约束 conflicts_pair_key 可以挡住反向的重复记录
func (r *Repository) CreateConflict(c *domain.Conflict) error {
	if c.EmployeeID > c.ConflictorID {
		c.EmployeeID, c.ConflictorID = c.ConflictorID, c.EmployeeID
		c.EmployeeName, c.ConflictorName = c.ConflictorName, c.EmployeeName
	}

	query := `
		INSERT INTO conflicts (employee_id, conflictor_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, c.EmployeeID, c.ConflictorID).Scan(&c.ID, &c.CreatedAt)
}

// DeleteConflict 返回是否真的删除了记录
func (r *Repository) DeleteConflict(id int64) (bool, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM conflicts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
