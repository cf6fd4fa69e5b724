package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/perkhive/loyalty-server/internal/app"
	"github.com/perkhive/loyalty-server/internal/config"
	log "github.com/sirupsen/logrus"
)

func main() {
	configFlag := flag.String("config", "", "path to config file")
	migrateOnly := flag.Bool("migrate", false, "run migrations and exit")
	flag.Parse()

	configPath := config.ResolvePath(*configFlag)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		if err := app.Migrate(ctx, configPath); err != nil {
			log.WithError(err).Fatal("migrate failed")
		}
		return
	}

	if err := app.Run(ctx, configPath); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
