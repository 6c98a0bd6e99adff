package repository

import (
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

func (r *Repository) GetAllEmployees() ([]*domain.Employee, error) {
	query := `
		SELECT id, name, team, is_present, created_at, version
		FROM employees
		ORDER BY id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		e := &domain.Employee{}
		if err := rows.Scan(&e.ID, &e.Name, &e.Team, &e.IsPresent, &e.CreatedAt, &e.Version); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (r *Repository) GetEmployeeByID(id int64) (*domain.Employee, error) {
	query := `
		SELECT name, team, is_present, created_at, version
		FROM employees WHERE id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	e := &domain.Employee{ID: id}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&e.Name, &e.Team, &e.IsPresent, &e.CreatedAt, &e.Version); err != nil {
		return nil, err
	}

	return e, nil
}

func (r *Repository) GetEmployeeByName(name string) (*domain.Employee, error) {
	query := `
		SELECT id, team, is_present, created_at, version
		FROM employees WHERE name = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	e := &domain.Employee{Name: name}
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(&e.ID, &e.Team, &e.IsPresent, &e.CreatedAt, &e.Version); err != nil {
		return nil, err
	}

	return e, nil
}

// SetTodayRoster 将名单中的员工标记为今天在岗，其余员工标记为不在岗
// 已存在的员工按名字更新团队，不存在的员工会被创建，冲突关系因此得以保留
func (r *Repository) SetTodayRoster(employees []*domain.Employee) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE employees SET is_present = false, version = version + 1 WHERE is_present = true`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}

	query = `
		INSERT INTO employees (name, team, is_present)
		VALUES ($1, $2, true)
		ON CONFLICT (name) DO UPDATE
		SET team = EXCLUDED.team, is_present = true, version = employees.version + 1
		RETURNING id, is_present, created_at, version
	`
	for _, e := range employees {
		if err := tx.QueryRowContext(ctx, query, e.Name, e.Team).Scan(&e.ID, &e.IsPresent, &e.CreatedAt, &e.Version); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) UpdateEmployee(e *domain.Employee) error {
	query := `
		UPDATE employees
		SET
			name = $1,
			team = $2,
			is_present = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{e.Name, e.Team, e.IsPresent, e.ID, e.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&e.Version)
}

// DeleteEmployee 会级联删除此员工的冲突关系
func (r *Repository) DeleteEmployee(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	return err
}
