package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storyreel/config"
	"storyreel/internal/deps"
	"storyreel/internal/service"
	"storyreel/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if opts.showVersion {
		printVersion()
	}
	if opts.showDiagnose {
		if opts.showVersion {
			fmt.Println()
		}
		printDiagnose()
	}
	if opts.manifestPath == "" {
		return 0
	}

	log.InitLogger()
	defer log.GetLogger().Sync()

	if err = config.LoadEnv(); err != nil {
		log.GetLogger().Warn("load .env failed", zap.Error(err))
	}
	config.LoadConfig()
	config.ApplyEnv()
	if err = config.CheckConfig(); err != nil {
		log.GetLogger().Error("invalid config", zap.Error(err))
		return 1
	}
	if config.Conf.App.LogLevel != "" {
		log.InitLoggerWithLevel(config.Conf.App.LogLevel)
	}
	if err = deps.CheckDependency(); err != nil {
		log.GetLogger().Error("dependency check failed", zap.Error(err))
		return 1
	}

	manifest, err := loadManifest(opts.manifestPath)
	if err != nil {
		log.GetLogger().Error("load manifest failed", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewService()
	res, err := svc.Render(ctx, manifest, service.RenderOptions{WorkDir: opts.outDir})
	if err != nil {
		log.GetLogger().Error("render failed", zap.String("manifest", opts.manifestPath), zap.Error(err))
		return 1
	}
	fmt.Printf("output: %s\nduration: %.2fs\nsegments: %d\n", res.OutputPath, res.Duration, res.Segments)
	return 0
}
