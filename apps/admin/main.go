package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/afero"

	"github.com/disiplinku/backend/apps/shared"
	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/admin"
	logsvc "github.com/disiplinku/backend/services/logger"
	"github.com/disiplinku/backend/storage/database"
)

func main() {
	conf := core.NewConfig()
	ctx := context.Background()
	logger := logsvc.NewStdLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf.Debug)

	store, credential, err := shared.OpenStore(ctx, conf, afero.NewOsFs(), logger)
	if err != nil {
		logger.Fatal("opening store", err)
	}

	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)

	cl := commandLine{
		adminSvc: admin.NewService(store, validate),
		out:      os.Stdout,
	}

	// the audit log is connected without migrating: `migrate` handles that
	if conf.Database.Enabled() {
		db, err := database.Open(ctx, conf.Database)
		if err != nil {
			logger.Fatal("opening audit log", err)
		}
		defer func() { _ = db.Close() }()
		cl.db = db
		cl.attempts = database.NewAttemptRepository(db)
	}

	cl.dispatcher = shared.NewDispatcher(conf, shared.DispatcherDeps{
		Store:      store,
		Credential: credential,
		Logger:     logger,
		Mailer:     shared.NewMailer(conf, os.Stderr, logger),
		AuditLog:   cl.db,
	})

	if err := cl.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
