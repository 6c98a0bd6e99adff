package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
)

var (
	ErrMalformedMessage = errors.New("无法解析排座任务消息")
	ErrInterrupted      = errors.New("排座任务被中断")
	ErrNoDesks          = errors.New("没有可用的座位")
)

// Store 是 worker 用到的数据库操作，由 repository.Repository 实现
type Store interface {
	GetSeatingJobByID(id string) (*domain.SeatingJob, error)
	UpdateSeatingJobStatus(job *domain.SeatingJob) error
	FinishSeatingJob(job *domain.SeatingJob, layout *domain.SeatingLayout) error
	GetAllDesks() ([]*domain.Desk, error)
	GetAllEmployees() ([]*domain.Employee, error)
	GetAllConflicts() ([]*domain.Conflict, error)
	GetSeatingLayoutByID(id int64) (*domain.SeatingLayout, error)
	GetUsersByRole(role domain.Role) ([]*domain.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// ProgressRecorder 由 progress.Store 实现
type ProgressRecorder interface {
	Save(ctx context.Context, jobID string, report seating.GenerationReport) error
	SaveBest(ctx context.Context, jobID string, best seating.Breakdown) error
}

type Worker struct {
	cfg      *config.Config
	store    Store
	mailer   *queue.Mailer
	progress ProgressRecorder
}

func New(cfg *config.Config, store Store, publisher Publisher, progress ProgressRecorder) *Worker {
	return &Worker{
		cfg:      cfg,
		store:    store,
		mailer:   queue.NewMailer(publisher, cfg.RabbitMQ.MailQueue),
		progress: progress,
	}
}

// Handle 执行一条排座任务消息
// 返回 nil 表示消息已处理完毕（包括任务失败的情况）；
// 返回 ErrInterrupted 表示 ctx 被取消，任务已重置为等待状态，消息应当重新入队；
// 其他错误表示消息无法处理，应当丢弃
func (wk *Worker) Handle(ctx context.Context, body []byte) error {
	var msg domain.SeatingJobMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	job, err := wk.store.GetSeatingJobByID(msg.JobID)
	if err != nil {
		return fmt.Errorf("无法获取排座任务 %s: %w", msg.JobID, err)
	}

	if job.Status.Done() {
		slog.Info("排座任务已结束，跳过", "job", job.ID, "status", job.Status)
		return nil
	}

	job.Status = domain.JobStatusRunning
	job.Error = ""
	if err := wk.store.UpdateSeatingJobStatus(job); err != nil {
		return fmt.Errorf("无法更新排座任务 %s 的状态: %w", job.ID, err)
	}

	slog.Info("开始排座", "job", job.ID, "name", job.Name)
	start := time.Now()

	layout, err := wk.plan(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			wk.setStatus(job, domain.JobStatusPending, "")
			return ErrInterrupted
		}
		slog.Error("排座失败", "job", job.ID, "error", err)
		wk.setStatus(job, domain.JobStatusFailed, err.Error())
		return nil
	}

	if err := wk.store.FinishSeatingJob(job, layout); err != nil {
		slog.Error("无法保存座位表", "job", job.ID, "error", err)
		wk.setStatus(job, domain.JobStatusFailed, "无法保存座位表")
		return nil
	}

	slog.Info("排座完成",
		"job", job.ID,
		"layout", layout.ID,
		"fitness", layout.Fitness,
		"duration", time.Since(start),
	)

	wk.notify(ctx, job, layout)
	return nil
}

func (wk *Worker) setStatus(job *domain.SeatingJob, status domain.JobStatus, reason string) {
	job.Status = status
	job.Error = reason
	if err := wk.store.UpdateSeatingJobStatus(job); err != nil {
		slog.Error("无法更新排座任务的状态", "job", job.ID, "status", status, "error", err)
	}
}

// plan 构建当天的 World 并运行遗传算法，超时后使用已经找到的最优结果
func (wk *Worker) plan(ctx context.Context, job *domain.SeatingJob) (*domain.SeatingLayout, error) {
	params, err := seating.ParametersFromDomain(job.Parameters)
	if err != nil {
		return nil, err
	}

	desks, err := wk.store.GetAllDesks()
	if err != nil {
		return nil, err
	}
	if len(desks) == 0 {
		return nil, ErrNoDesks
	}

	employees, err := wk.store.GetAllEmployees()
	if err != nil {
		return nil, err
	}

	conflicts, err := wk.store.GetAllConflicts()
	if err != nil {
		return nil, err
	}

	world, err := seating.BuildWorld(desks, employees, conflicts)
	if err != nil {
		return nil, err
	}

	var target *seating.Target
	if job.PriorLayoutID != nil {
		prior, err := wk.store.GetSeatingLayoutByID(*job.PriorLayoutID)
		if err != nil {
			return nil, fmt.Errorf("无法获取参考座位表 %d: %w", *job.PriorLayoutID, err)
		}
		if target, err = seating.Remap(prior, world); err != nil {
			return nil, err
		}
	}

	best := seating.NewBestHolder()
	driver := seating.NewDriver(world, target, params, best, wk.reporter(ctx, job.ID, params))

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(wk.cfg.Planner.JobTimeout)*time.Second)
	defer cancel()

	if err := driver.Run(runCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, err
		}
		slog.Warn("排座超时，使用当前最优结果", "job", job.ID, "timeout", wk.cfg.Planner.JobTimeout)
	}

	_, c, ok := best.Best()
	if !ok {
		return nil, errors.New("没有得到任何座位表")
	}

	if err := wk.progress.SaveBest(ctx, job.ID, c.Breakdown()); err != nil {
		slog.Warn("无法保存最优结果", "job", job.ID, "error", err)
	}

	layout := seating.Snapshot(world, c)
	layout.Name = job.Name
	return layout, nil
}

// reporter 每隔 ProgressInterval 代以及在最后一代时把进度写入 redis
// 会被多个运行并发调用
func (wk *Worker) reporter(ctx context.Context, jobID string, params *seating.Parameters) seating.ReportFunc {
	interval := max(1, wk.cfg.Planner.ProgressInterval)

	return func(report seating.GenerationReport) {
		if report.Generation%interval != 0 && report.Generation != params.MaxGenerations-1 {
			return
		}
		if err := wk.progress.Save(ctx, jobID, report); err != nil {
			slog.Warn("无法保存排座进度", "job", jobID, "run", report.Run, "error", err)
		}
	}
}

// notify 通知所有排座管理员座位表已经生成，失败只记录日志
func (wk *Worker) notify(ctx context.Context, job *domain.SeatingJob, layout *domain.SeatingLayout) {
	planners, err := wk.store.GetUsersByRole(domain.RolePlanner)
	if err != nil {
		slog.Error("无法获取排座管理员", "job", job.ID, "error", err)
		return
	}

	for _, user := range planners {
		if !user.IsActive {
			continue
		}

		data := domain.LayoutReadyMailData{
			FullName:            user.FullName,
			JobName:             job.Name,
			LayoutID:            layout.ID,
			Fitness:             fmt.Sprintf("%.4f", layout.Fitness),
			ConflictPercentage:  seating.FormatPercentage(layout.ConflictRatio),
			TeamSeatPercentage:  seating.FormatPercentage(layout.TeamSeatRatio),
			PriorSeatPercentage: seating.FormatPercentage(layout.PriorSeatRatio),
		}

		if err := wk.mailer.Send(ctx, domain.MailTypeLayoutReady, user.Email, data); err != nil {
			slog.Error("无法投递邮件", "job", job.ID, "to", user.Email, "error", err)
		}
	}
}
