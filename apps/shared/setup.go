// Package shared wires the dependencies common to the api & admin apps.
package shared

import (
	"context"
	"io"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/notification"
	emailsvc "github.com/disiplinku/backend/services/email"
	pushsvc "github.com/disiplinku/backend/services/push"
	"github.com/disiplinku/backend/storage/database"
	"github.com/disiplinku/backend/storage/inmem"
	"github.com/disiplinku/backend/storage/rtdb"
)

// OpenStore opens the configured store and returns the credential the Dispatcher checks.
// A firebase engine without service account yields an empty in-memory store & a blank
// credential, so that dispatches fail with core.ErrConfigMissing instead of the app refusing to start.
func OpenStore(ctx context.Context, conf *core.Config, fs afero.Fs, logger core.Logger) (core.Store, string, error) {
	switch conf.Store.Engine {
	case core.StoreMemory:
		if conf.Store.Fixture == "" {
			return inmemdb.Open(), core.StoreMemory, nil
		}
		db, err := inmemdb.Load(fs, conf.Store.Fixture)
		if err != nil {
			return nil, "", errors.Wrap(err, "loading store fixture")
		}
		logger.Info("store fixture loaded: " + conf.Store.Fixture)
		return db, core.StoreMemory, nil

	case core.StoreFirebase:
		store, err := rtdb.Open(ctx, conf.Store)
		if err != nil {
			if errors.Cause(err) == core.ErrConfigMissing {
				logger.Warn("store service account is not configured: dispatches will fail")
				return inmemdb.Open(), "", nil
			}
			return nil, "", err
		}
		return store, conf.Store.ServiceAccount, nil

	default:
		return nil, "", errors.Errorf("unknown store engine %q", conf.Store.Engine)
	}
}

// OpenAuditLog connects to & migrates the audit log database. It returns nil when disabled.
func OpenAuditLog(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if !conf.Database.Enabled() {
		return nil, nil
	}
	db, err := database.Open(ctx, conf.Database)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewMailer prints alert emails in debug mode & sends them with Sendgrid otherwise.
func NewMailer(conf *core.Config, out io.Writer, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, log.New(out, "EMAIL : ", log.LstdFlags))
	}
	return emailsvc.NewSendgridService(conf, logger)
}

type DispatcherDeps struct {
	Store      core.Store
	Credential string
	Logger     core.Logger
	Mailer     core.EmailService
	AuditLog   *sqlx.DB
	Observer   notification.Observer
}

func NewDispatcher(conf *core.Config, deps DispatcherDeps) *notification.Dispatcher {
	d := notification.Deps{
		Store:    deps.Store,
		Provider: pushsvc.NewOneSignalService(conf.OneSignal, nil),
		Prober:   pushsvc.NewHeadProber(conf.Dispatch.ProbeTimeout, nil),
		Logger:   deps.Logger,
		Mailer:   deps.Mailer,
		Observer: deps.Observer,
	}
	if deps.AuditLog != nil {
		d.Recorder = database.NewAttemptRepository(deps.AuditLog)
	}
	return notification.NewDispatcher(
		notification.Options{
			Credential:      deps.Credential,
			BodyLimit:       conf.Dispatch.BodyLimit,
			ProbeMedia:      conf.Dispatch.ProbeMedia,
			Concurrency:     conf.Dispatch.Concurrency,
			AlertRecipients: core.ParseAddresses(conf.Alerts.Recipients),
		},
		d,
	)
}
