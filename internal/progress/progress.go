package progress

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seating"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	runFieldPrefix = "run_"
	bestField      = "best"
)

// Progress 是某个排座任务当前的进度
type Progress struct {
	Runs []seating.GenerationReport `json:"runs"`
	Best *seating.Breakdown         `json:"best"`
}

// Store 将每个运行最新的一代统计和全局最优结果写入 redis 的 hash 中
// 每个字段都是 msgpack 编码的二进制数据
type Store struct {
	rdb        redis.Cmdable
	expiration time.Duration
	timeout    time.Duration
}

func NewStore(rdb redis.Cmdable, expiration, timeout time.Duration) *Store {
	return &Store{
		rdb:        rdb,
		expiration: expiration,
		timeout:    timeout,
	}
}

func Key(jobID string) string {
	return "seating_progress_" + jobID
}

func (s *Store) set(ctx context.Context, jobID, field string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := Key(jobID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, data)
		pipe.Expire(ctx, key, s.expiration)
		return nil
	})
	return err
}

// Save 记录某个运行最新的一代统计
func (s *Store) Save(ctx context.Context, jobID string, report seating.GenerationReport) error {
	return s.set(ctx, jobID, runFieldPrefix+strconv.Itoa(report.Run), report)
}

// SaveBest 记录全局最优结果的适应度组成
func (s *Store) SaveBest(ctx context.Context, jobID string, best seating.Breakdown) error {
	return s.set(ctx, jobID, bestField, best)
}

// Load 读取任务的进度，任务不存在或已过期时返回空的进度
func (s *Store) Load(ctx context.Context, jobID string) (*Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields, err := s.rdb.HGetAll(ctx, Key(jobID)).Result()
	if err != nil {
		return nil, err
	}

	return decode(fields)
}

func decode(fields map[string]string) (*Progress, error) {
	p := &Progress{Runs: make([]seating.GenerationReport, 0, len(fields))}

	for field, value := range fields {
		switch {
		case field == bestField:
			best := &seating.Breakdown{}
			if err := msgpack.Unmarshal([]byte(value), best); err != nil {
				return nil, fmt.Errorf("无法解析最优结果: %w", err)
			}
			p.Best = best
		case strings.HasPrefix(field, runFieldPrefix):
			var report seating.GenerationReport
			if err := msgpack.Unmarshal([]byte(value), &report); err != nil {
				return nil, fmt.Errorf("无法解析 %s 的进度: %w", field, err)
			}
			p.Runs = append(p.Runs, report)
		}
	}

	sort.Slice(p.Runs, func(i, j int) bool {
		return p.Runs[i].Run < p.Runs[j].Run
	})

	return p, nil
}
