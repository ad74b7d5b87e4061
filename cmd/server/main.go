package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storyreel/config"
	"storyreel/internal/deps"
	"storyreel/internal/queue"
	"storyreel/internal/server"
	"storyreel/internal/service"
	"storyreel/internal/storage"
	"storyreel/internal/taskrunner"
	"storyreel/log"
)

func main() {
	log.InitLogger()
	defer log.GetLogger().Sync()

	if err := config.LoadEnv(); err != nil {
		log.GetLogger().Warn("load .env failed", zap.Error(err))
	}
	config.LoadConfig()
	config.ApplyEnv()

	var err error
	if err = config.CheckConfig(); err != nil {
		log.GetLogger().Error("invalid config", zap.Error(err))
		return
	}
	if config.Conf.App.LogLevel != "" {
		log.InitLoggerWithLevel(config.Conf.App.LogLevel)
	}

	if err = deps.CheckDependency(); err != nil {
		log.GetLogger().Error("dependency check failed", zap.Error(err))
		return
	}

	storage.InitDB()
	svc := service.NewService()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch config.Conf.Queue.Backend {
	case "redis":
		q := queue.NewQueue(queue.ConfigFromConf())
		defer q.Close()
		svc.Dispatcher = q
		go func() {
			if err := queue.StartWorker(q, svc); err != nil {
				log.GetLogger().Error("queue worker stopped", zap.Error(err))
				stop()
			}
		}()
	default:
		runner := taskrunner.New(svc, taskrunner.Config{
			QueueSize:   config.Conf.Queue.QueueSize,
			Concurrency: config.Conf.Queue.Concurrency,
		})
		defer runner.Close()
		svc.Dispatcher = runner
	}

	if err = svc.RecoverJobs(); err != nil {
		log.GetLogger().Warn("recover render jobs", zap.Error(err))
	}

	if err = server.StartBackend(ctx, svc); err != nil {
		log.GetLogger().Error("backend stopped", zap.Error(err))
		os.Exit(1)
	}
}
