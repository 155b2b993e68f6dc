// Package app wires the core services together: one store, one registry, one
// ledger, one authorization engine, one dispatcher.
package app

import (
	"github.com/shopspring/decimal"

	"github.com/novabank/ledger_service/internal/app/dispatch"
	"github.com/novabank/ledger_service/internal/app/services/authorize"
	"github.com/novabank/ledger_service/internal/app/services/ledger"
	"github.com/novabank/ledger_service/internal/app/services/registry"
	"github.com/novabank/ledger_service/internal/app/storage"
	"github.com/novabank/ledger_service/internal/app/storage/memory"
	"github.com/novabank/ledger_service/pkg/logger"
)

// Options configure the application. A nil Store defaults to the in-memory
// implementation; a zero StartingBalance defaults to 1000.
type Options struct {
	Store           storage.LedgerStore
	StartingBalance decimal.Decimal
	Log             *logger.Logger
}

// Application holds the wired core.
type Application struct {
	Registry   *registry.Service
	Ledger     *ledger.Service
	Engine     *authorize.Service
	Dispatcher *dispatch.Dispatcher
}

// New builds a fully initialised application.
func New(opts Options) *Application {
	log := opts.Log
	if log == nil {
		log = logger.NewDefault("app")
	}
	store := opts.Store
	if store == nil {
		store = memory.New()
	}
	startingBalance := opts.StartingBalance
	if startingBalance.IsZero() {
		startingBalance = decimal.NewFromInt(1000)
	}

	reg := registry.New(store, startingBalance, log.WithField("component", "registry"))
	led := ledger.New(store, log.WithField("component", "ledger"))
	engine := authorize.New(reg, led, log.WithField("component", "authorize"))
	dispatcher := dispatch.New(reg, engine, led, log.WithField("component", "dispatch"))

	return &Application{
		Registry:   reg,
		Ledger:     led,
		Engine:     engine,
		Dispatcher: dispatcher,
	}
}
