package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nrgdoc/edo-repacker/config"
	"github.com/nrgdoc/edo-repacker/internal/batch"
	"github.com/nrgdoc/edo-repacker/internal/bundle"
	"github.com/nrgdoc/edo-repacker/internal/classify"
	"github.com/nrgdoc/edo-repacker/internal/codes"
	"github.com/nrgdoc/edo-repacker/internal/extract"
	"github.com/nrgdoc/edo-repacker/pkg/archive"
	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Logger.Level),
		logger.WithEncoding(cfg.Logger.Encoding),
		logger.WithOutputPaths([]string{
			"stdout",
			logger.DatedLogPath(cfg.LogDir, "repack"),
		}),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor, err := extract.New(ctx, cfg.Extractor, log)
	if err != nil {
		log.Error("не удалось создать извлекатель текста", logger.Error(err))
		os.Exit(1)
	}
	defer extractor.Close()

	tables := codes.Default()
	dispatcher := classify.NewDispatcher(
		cfg.DocRoot,
		classify.NewTreeResolver(tables),
		classify.NewTextResolver(tables),
		extractor,
		log,
	)

	driver := batch.NewDriver(batch.Config{
		BufferDir:  cfg.BufferDir(),
		Dispatcher: dispatcher,
		Diadoc:     bundle.NewDiadocBundler(log),
		Sbis:       bundle.NewSbisBundler(log),
		Unpack:     archive.Unpack,
		Log:        log,
	})

	if err := driver.Run(ctx); err != nil {
		log.Error("пакетная обработка прервана", logger.Error(err))
		os.Exit(1)
	}
}
