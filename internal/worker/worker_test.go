package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
)

type fakeStore struct {
	jobs      map[string]*domain.SeatingJob
	desks     []*domain.Desk
	employees []*domain.Employee
	conflicts []*domain.Conflict
	layouts   map[int64]*domain.SeatingLayout
	users     []*domain.User

	statuses []domain.JobStatus
	saved    *domain.SeatingLayout
}

func (s *fakeStore) GetSeatingJobByID(id string) (*domain.SeatingJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (s *fakeStore) UpdateSeatingJobStatus(job *domain.SeatingJob) error {
	s.statuses = append(s.statuses, job.Status)
	job.Version++
	return nil
}

func (s *fakeStore) FinishSeatingJob(job *domain.SeatingJob, layout *domain.SeatingLayout) error {
	layout.ID = int64(len(s.layouts) + 1)
	layout.JobID = &job.ID
	s.layouts[layout.ID] = layout
	s.saved = layout

	job.Status = domain.JobStatusFinished
	job.LayoutID = &layout.ID
	s.statuses = append(s.statuses, job.Status)
	return nil
}

func (s *fakeStore) GetAllDesks() ([]*domain.Desk, error)         { return s.desks, nil }
func (s *fakeStore) GetAllEmployees() ([]*domain.Employee, error) { return s.employees, nil }
func (s *fakeStore) GetAllConflicts() ([]*domain.Conflict, error) { return s.conflicts, nil }

func (s *fakeStore) GetSeatingLayoutByID(id int64) (*domain.SeatingLayout, error) {
	layout, ok := s.layouts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return layout, nil
}

func (s *fakeStore) GetUsersByRole(role domain.Role) ([]*domain.User, error) {
	users := make([]*domain.User, 0)
	for _, u := range s.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	return users, nil
}

type fakePublisher struct {
	queues   []string
	messages []any
}

func (p *fakePublisher) Publish(_ context.Context, queue string, v any) error {
	p.queues = append(p.queues, queue)
	p.messages = append(p.messages, v)
	return nil
}

type fakeProgress struct {
	mu      sync.Mutex
	reports []seating.GenerationReport
	best    *seating.Breakdown
}

func (p *fakeProgress) Save(_ context.Context, _ string, report seating.GenerationReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, report)
	return nil
}

func (p *fakeProgress) SaveBest(_ context.Context, _ string, best seating.Breakdown) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.best = &best
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.RabbitMQ.MailQueue = "email_queue"
	cfg.Planner.JobTimeout = 60
	cfg.Planner.ProgressInterval = 2
	return cfg
}

func testParameters() domain.PlannerParameters {
	return domain.PlannerParameters{
		MaxGenerations:      5,
		PopulationSize:      4,
		UpdateFrequency:     10,
		MinSwaps:            0,
		MaxSwaps:            2,
		ConflictShiftRadius: 2,
		CrossoverMode:       "double-cut",
		Runs:                2,
		Seed:                7,
	}
}

func newFakeStore(job *domain.SeatingJob) *fakeStore {
	desks := make([]*domain.Desk, 0)
	for _, d := range seating.AllDesks()[:6] {
		desks = append(desks, &domain.Desk{Row: int32(d.Row), Col: int32(d.Col), Team: 1, Index: int32(d.Index)})
	}

	return &fakeStore{
		jobs:  map[string]*domain.SeatingJob{job.ID: job},
		desks: desks,
		employees: []*domain.Employee{
			{ID: 1, Name: "张伟", Team: 1, IsPresent: true},
			{ID: 2, Name: "李娜", Team: 1, IsPresent: true},
			{ID: 3, Name: "王强", Team: 2, IsPresent: true},
			{ID: 4, Name: "刘洋", Team: 0, IsPresent: false},
		},
		conflicts: []*domain.Conflict{
			{ID: 1, EmployeeID: 1, EmployeeName: "张伟", ConflictorID: 2, ConflictorName: "李娜"},
		},
		layouts: map[int64]*domain.SeatingLayout{},
		users: []*domain.User{
			{ID: 1, FullName: "管理员", Email: "admin@example.com", Role: domain.RolePlanner, IsActive: true},
			{ID: 2, FullName: "离职管理员", Email: "left@example.com", Role: domain.RolePlanner, IsActive: false},
			{ID: 3, FullName: "职员", Email: "staff@example.com", Role: domain.RoleStaff, IsActive: true},
		},
	}
}

func message(t *testing.T, jobID string) []byte {
	t.Helper()

	body, err := json.Marshal(domain.SeatingJobMessage{JobID: jobID})
	require.NoError(t, err)
	return body
}

func TestHandleFinishesJob(t *testing.T) {
	job := &domain.SeatingJob{ID: "job-1", Name: "周一", Status: domain.JobStatusPending, Parameters: testParameters()}
	store := newFakeStore(job)
	publisher := &fakePublisher{}
	progress := &fakeProgress{}
	wk := New(testConfig(), store, publisher, progress)

	require.NoError(t, wk.Handle(context.Background(), message(t, job.ID)))

	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusFinished}, store.statuses)
	require.NotNil(t, store.saved)
	assert.Equal(t, "周一", store.saved.Name)
	assert.Len(t, store.saved.Slots, 6)
	assert.Len(t, store.saved.Employees, 6)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, store.saved.Slots)

	// 每个运行记录第 0、2、4 代
	assert.Len(t, progress.reports, 6)
	require.NotNil(t, progress.best)
	assert.Equal(t, store.saved.Fitness, progress.best.Fitness)

	// 只通知在职的排座管理员
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "email_queue", publisher.queues[0])
	mail := publisher.messages[0].(domain.MailMessage)
	assert.Equal(t, domain.MailTypeLayoutReady, mail.Type)
	assert.Equal(t, "admin@example.com", mail.To)
	data := mail.Data.(domain.LayoutReadyMailData)
	assert.Equal(t, store.saved.ID, data.LayoutID)
	assert.Equal(t, "周一", data.JobName)
}

func TestHandleWithPriorLayout(t *testing.T) {
	prior := int64(1)
	job := &domain.SeatingJob{ID: "job-2", Name: "周二", Status: domain.JobStatusPending, Parameters: testParameters(), PriorLayoutID: &prior}
	store := newFakeStore(job)
	store.layouts[prior] = &domain.SeatingLayout{
		ID: prior,
		Employees: []domain.LayoutEmployee{
			{Name: "张伟", Index: 0, Team: 1},
			{Name: "王强", Index: 1, Team: 2},
			{Name: "离开的人", Index: 2, Team: 1},
		},
		Slots: []int{2, 0, 1},
	}
	wk := New(testConfig(), store, &fakePublisher{}, &fakeProgress{})

	require.NoError(t, wk.Handle(context.Background(), message(t, job.ID)))
	assert.Equal(t, domain.JobStatusFinished, job.Status)
	require.NotNil(t, job.LayoutID)
	assert.Greater(t, store.saved.PriorSeatRatio, 0.0)
}

func TestHandleMalformedMessage(t *testing.T) {
	wk := New(testConfig(), &fakeStore{}, &fakePublisher{}, &fakeProgress{})

	err := wk.Handle(context.Background(), []byte("{"))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestHandleMissingJob(t *testing.T) {
	job := &domain.SeatingJob{ID: "job-3", Parameters: testParameters()}
	wk := New(testConfig(), newFakeStore(job), &fakePublisher{}, &fakeProgress{})

	err := wk.Handle(context.Background(), message(t, "unknown"))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestHandleSkipsFinishedJob(t *testing.T) {
	for _, status := range []domain.JobStatus{domain.JobStatusFinished, domain.JobStatusFailed, domain.JobStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			job := &domain.SeatingJob{ID: "job-4", Status: status, Parameters: testParameters()}
			store := newFakeStore(job)
			wk := New(testConfig(), store, &fakePublisher{}, &fakeProgress{})

			require.NoError(t, wk.Handle(context.Background(), message(t, job.ID)))
			assert.Empty(t, store.statuses)
		})
	}
}

func TestHandleFailsJob(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(job *domain.SeatingJob, store *fakeStore)
	}{
		{
			name: "odd population",
			prepare: func(job *domain.SeatingJob, _ *fakeStore) {
				job.Parameters.PopulationSize = 5
			},
		},
		{
			name: "no desks",
			prepare: func(_ *domain.SeatingJob, store *fakeStore) {
				store.desks = nil
			},
		},
		{
			name: "not enough desks",
			prepare: func(_ *domain.SeatingJob, store *fakeStore) {
				store.desks = store.desks[:2]
			},
		},
		{
			name: "missing prior layout",
			prepare: func(job *domain.SeatingJob, _ *fakeStore) {
				id := int64(42)
				job.PriorLayoutID = &id
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &domain.SeatingJob{ID: "job-5", Status: domain.JobStatusPending, Parameters: testParameters()}
			store := newFakeStore(job)
			tt.prepare(job, store)
			publisher := &fakePublisher{}
			wk := New(testConfig(), store, publisher, &fakeProgress{})

			require.NoError(t, wk.Handle(context.Background(), message(t, job.ID)))
			assert.Equal(t, domain.JobStatusFailed, job.Status)
			assert.NotEmpty(t, job.Error)
			assert.Nil(t, store.saved)
			assert.Empty(t, publisher.messages)
		})
	}
}

func TestHandleInterrupted(t *testing.T) {
	job := &domain.SeatingJob{ID: "job-6", Status: domain.JobStatusPending, Parameters: testParameters()}
	store := newFakeStore(job)
	wk := New(testConfig(), store, &fakePublisher{}, &fakeProgress{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := wk.Handle(ctx, message(t, job.ID))
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusPending}, store.statuses)
	assert.Nil(t, store.saved)
}
