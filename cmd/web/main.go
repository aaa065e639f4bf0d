package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/bigredeye/schoolbook/internal/config"
	"github.com/bigredeye/schoolbook/internal/web"
	zlog "github.com/bigredeye/schoolbook/pkg/log"
)

var configPath = flag.String("config", "", "Path to the config file")

func run() error {
	conf, err := config.ParseConfig(*configPath)
	if err != nil {
		return err
	}

	sink := &zlog.FileSink{
		Path:       conf.Log.File,
		MaxSizeMB:  conf.Log.MaxSizeMB,
		MaxBackups: conf.Log.MaxBackups,
	}
	initLogger := zlog.InitDev
	if conf.Log.Production {
		initLogger = zlog.InitProd
	}
	logger := initLogger(sink)
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return web.Run(ctx, conf, logger)
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
