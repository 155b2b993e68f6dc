// Command ledgerd runs the transaction authorization and ledger server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/novabank/ledger_service/internal/app"
	"github.com/novabank/ledger_service/internal/app/httpapi"
	"github.com/novabank/ledger_service/internal/config"
	"github.com/novabank/ledger_service/internal/server"
	"github.com/novabank/ledger_service/pkg/logger"
)

func main() {
	// Optional .env for local development; ignore absence.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	log := logger.NewDefault("ledgerd")

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			log.WithError(err).Error("load config")
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid config")
		os.Exit(1)
	}

	application := app.New(app.Options{
		StartingBalance: cfg.StartingBalanceDecimal(),
		Log:             log,
	})

	srv := server.New(server.Config{
		Addr:              cfg.ListenAddr,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}, application.Dispatcher, log.WithField("component", "server"))

	if err := srv.Start(); err != nil {
		log.WithError(err).Error("start ledger server")
		os.Exit(1)
	}

	var adminSrv *http.Server
	if cfg.AdminAddr != "" {
		adminSrv = &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           httpapi.NewRouter(application.Registry, application.Ledger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", cfg.AdminAddr).Info("operator API listening")
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("operator API failed")
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	if adminSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = adminSrv.Shutdown(ctx)
		cancel()
	}
	srv.Stop()
}
