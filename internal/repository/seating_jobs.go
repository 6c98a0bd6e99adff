package repository

import (
	"encoding/json"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

const seatingJobColumns = `id, name, status, parameters, prior_layout_id, layout_id, requested_by, error, created_at, updated_at, version`

// 扫描时 parameters 先读成 []byte，再由 decodeJob 解析
type jobRow struct {
	job        *domain.SeatingJob
	parameters []byte
}

func newJobRow() *jobRow {
	return &jobRow{job: &domain.SeatingJob{}}
}

func (row *jobRow) dst() []any {
	j := row.job
	return []any{&j.ID, &j.Name, &j.Status, &row.parameters, &j.PriorLayoutID, &j.LayoutID, &j.RequestedBy, &j.Error, &j.CreatedAt, &j.UpdatedAt, &j.Version}
}

func (row *jobRow) decode() (*domain.SeatingJob, error) {
	if err := json.Unmarshal(row.parameters, &row.job.Parameters); err != nil {
		return nil, err
	}
	return row.job, nil
}

func (r *Repository) CreateSeatingJob(job *domain.SeatingJob) error {
	parameters, err := json.Marshal(job.Parameters)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO seating_jobs (id, name, status, parameters, prior_layout_id, requested_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{job.ID, job.Name, job.Status, parameters, job.PriorLayoutID, job.RequestedBy}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&job.CreatedAt, &job.UpdatedAt, &job.Version)
}

func (r *Repository) GetSeatingJobByID(id string) (*domain.SeatingJob, error) {
	query := `SELECT ` + seatingJobColumns + ` FROM seating_jobs WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	row := newJobRow()
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(row.dst()...); err != nil {
		return nil, err
	}

	return row.decode()
}

func (r *Repository) GetAllSeatingJobs() ([]*domain.SeatingJob, error) {
	return r.listSeatingJobs(`SELECT ` + seatingJobColumns + ` FROM seating_jobs ORDER BY created_at DESC`)
}

// GetSeatingJobsByRequester 列出某个排座管理员提交的任务
func (r *Repository) GetSeatingJobsByRequester(userID int64) ([]*domain.SeatingJob, error) {
	query := `SELECT ` + seatingJobColumns + ` FROM seating_jobs WHERE requested_by = $1 ORDER BY created_at DESC`
	return r.listSeatingJobs(query, userID)
}

func (r *Repository) listSeatingJobs(query string, args ...any) ([]*domain.SeatingJob, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*domain.SeatingJob, 0)
	for rows.Next() {
		row := newJobRow()
		if err := rows.Scan(row.dst()...); err != nil {
			return nil, err
		}
		job, err := row.decode()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

// UpdateSeatingJobStatus 使用乐观锁，版本号不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateSeatingJobStatus(job *domain.SeatingJob) error {
	query := `
		UPDATE seating_jobs
		SET
			status = $1,
			error = $2,
			updated_at = now(),
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING updated_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{job.Status, job.Error, job.ID, job.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&job.UpdatedAt, &job.Version)
}

// FinishSeatingJob 在同一个事务中保存座位表并将任务标记为完成
func (r *Repository) FinishSeatingJob(job *domain.SeatingJob, layout *domain.SeatingLayout) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	layout.JobID = &job.ID
	if err := insertSeatingLayout(ctx, tx, layout); err != nil {
		return err
	}

	query := `
		UPDATE seating_jobs
		SET
			status = $1,
			layout_id = $2,
			error = '',
			updated_at = now(),
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING updated_at, version
	`
	args := []any{domain.JobStatusFinished, layout.ID, job.ID, job.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&job.UpdatedAt, &job.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	job.Status = domain.JobStatusFinished
	job.LayoutID = &layout.ID
	job.Error = ""
	return nil
}
