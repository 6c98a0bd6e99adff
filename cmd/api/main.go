package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/handler"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/progress"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/seed"
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
	 * 连接数据库，并确保存在初始排座管理员
	 **********************************************/
	dbpool, err := repository.Open(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	if err := seed.EnsureInitialPlanner(repo, cfg); err != nil {
		logger.Error("无法创建初始排座管理员", "error", err)
		return
	}

	/**********************************************
	 * 连接 rabbitmq 和 redis
	 **********************************************/
	conn, ch, err := queue.Dial(cfg)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()
	defer ch.Close()

	rdb := progress.NewRedisClient(cfg)
	defer rdb.Close()

	/**********************************************
	 * 创建 handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, repo, ch, rdb)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 端口被占用等情况下不必等待信号
	select {
	case <-quit:
	case err := <-serveErr:
		logger.Error("无法启动服务器", "error", err)
		return
	}
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", "error", err)
	}
	logger.Info("服务器已成功关闭")
}
