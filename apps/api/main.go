package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/afero"

	"github.com/disiplinku/backend/apps/api/echo"
	"github.com/disiplinku/backend/apps/shared"
	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/admin"
	"github.com/disiplinku/backend/services/logger"
	"github.com/disiplinku/backend/services/metrics"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dispatchLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DISPATCH : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up store
	store, credential, err := shared.OpenStore(ctx, conf, afero.NewOsFs(), logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening store: %v", err), err)
	}

	// set up audit log
	auditDB, err := shared.OpenAuditLog(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up audit log: %v", err), err)
	}
	if auditDB != nil {
		defer func() {
			if err = auditDB.Close(); err != nil {
				logger.Error("closing audit log", err)
			}
		}()
	}

	// set up services
	collector := metrics.NewCollector()
	dispatcher := shared.NewDispatcher(conf, shared.DispatcherDeps{
		Store:      store,
		Credential: credential,
		Logger:     dispatchLogger,
		Mailer:     shared.NewMailer(conf, os.Stdout, logger),
		AuditLog:   auditDB,
		Observer:   collector,
	})

	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)
	adminSvc := admin.NewService(store, validate)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics of the dispatcher.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("store").Set(conf.Store.Engine)
	http.DefaultServeMux.Handle("/metrics", collector.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		AdminSvc:   adminSvc,
		Dispatcher: dispatcher,
		Validate:   validate,
		Translator: translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
