package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/Temutjin2k/vendor-location-sync/config"
	_ "github.com/Temutjin2k/vendor-location-sync/docs"
	"github.com/Temutjin2k/vendor-location-sync/internal/app"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
)

var (
	helpFlag        = flag.Bool("help", false, "Show help message")
	printConfigFlag = flag.Bool("print-config", false, "Print the effective configuration and exit")
)

func main() {
	flag.Parse()
	if *helpFlag {
		config.PrintHelp()
		return
	}

	ctx := context.Background()
	log := logger.InitLogger("vendorsync", logger.LevelInfo)

	cfg, err := config.NewConfig()
	if err != nil {
		log.Error(ctx, "failed to configure application", err)
		config.PrintHelp()
		os.Exit(1)
	}

	if *printConfigFlag {
		config.PrintConfig(*cfg)
		return
	}

	log = logger.InitLogger("vendorsync-"+string(cfg.Mode), strings.ToUpper(cfg.Log.Level))

	// Creating application
	application, err := app.NewApplication(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	// Running the application
	if err = application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
