package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/progress"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/worker"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库、redis 和 rabbitmq
	 **********************************************/
	dbpool, err := repository.Open(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	rdb := progress.NewRedisClient(cfg)
	defer rdb.Close()

	conn, ch, err := queue.Dial(cfg)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()
	defer ch.Close()

	// 排座任务很耗 CPU，每次只取一条消息
	msgs, err := queue.Consume(ch, cfg.RabbitMQ.SeatingQueue, 1)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	wk := worker.New(
		cfg,
		repo,
		queue.NewPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second),
		progress.NewStoreFromConfig(rdb, cfg),
	)

	// 监听 CTRL+C，收到信号后正在执行的任务会在当前这一代结束后停止并重新入队
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}

				err := wk.Handle(ctx, msg.Body)
				switch {
				case err == nil:
					_ = msg.Ack(false)
				case errors.Is(err, worker.ErrInterrupted):
					logger.Info("排座任务被中断，重新入队", "message", string(msg.Body))
					_ = msg.Nack(false, true)
				default:
					logger.Error("无法处理排座任务", "message", string(msg.Body), "error", err)
					_ = msg.Nack(false, false)
				}
			}
		}
	}()

	logger.Info("等待排座任务...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	logger.Info("正在关闭 seating worker...")
	cancel()
	wg.Wait()
	logger.Info("seating worker 已成功关闭")
}
