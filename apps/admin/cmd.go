package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/disiplinku/backend/core/admin"
	"github.com/disiplinku/backend/core/notification"
	"github.com/disiplinku/backend/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	gooseRunFunc     = database.RunMigrations // mockable

	errHelp           = errors.New("help provided")
	errNoAuditLog     = errors.New("the audit log database is not configured")
	errDispatchFailed = errors.New("dispatch failed")
)

type (
	adminService interface {
		Save(ctx context.Context, na admin.NewAdmin) (admin.Admin, error)
		GetByUsername(ctx context.Context, username string) (admin.Admin, error)
		GenerateAPIKey(ctx context.Context, adminID string) (string, error)
		SetAPIKeyStatus(ctx context.Context, key string, active bool) error
	}

	dispatcher interface {
		Dispatch(ctx context.Context, sel notification.Selector) (notification.Result, error)
	}

	attemptLog interface {
		RecentAttempts(ctx context.Context, limit int) ([]notification.Attempt, error)
	}
)

type commandLine struct {
	adminSvc   adminService
	dispatcher dispatcher
	db         *sqlx.DB   // nil when the audit log is disabled
	attempts   attemptLog // nil when the audit log is disabled
	out        io.Writer
}

func (cl *commandLine) app() *cli.App {
	app := cli.NewApp()
	app.Name = "disiplinku-admin"
	app.Usage = "manage dashboard admins, API keys & notification dispatches"
	app.UsageText = "admin <command> [arguments...]"
	app.HideVersion = true
	app.Writer = cl.out
	app.ErrWriter = cl.out
	app.Action = func(ctx *cli.Context) error {
		_ = cli.ShowAppHelp(ctx)
		return errHelp
	}
	app.Commands = []cli.Command{
		{
			Name:      "adduser",
			Usage:     "create an admin, or reset their password. The password is prompted next.",
			UsageText: "admin adduser -username USERNAME",
			Flags:     []cli.Flag{cli.StringFlag{Name: "username", Usage: "the admin's username"}},
			Action:    cl.addUserAction,
		},
		{
			Name:      "genkey",
			Usage:     "issue an API key for an admin",
			UsageText: "admin genkey -username USERNAME",
			Flags:     []cli.Flag{cli.StringFlag{Name: "username", Usage: "the admin's username"}},
			Action:    cl.genKeyAction,
		},
		{
			Name:      "keystatus",
			Usage:     "activate or deactivate an API key",
			UsageText: "admin keystatus -key KEY [-active=false]",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "key", Usage: "the API key"},
				cli.BoolTFlag{Name: "active", Usage: "whether the key is accepted (default: true)"},
			},
			Action: cl.keyStatusAction,
		},
		{
			Name:      "dispatch",
			Usage:     "drain the notification queues once",
			UsageText: "admin dispatch [-type calls|posts|violations|all]",
			Flags:     []cli.Flag{cli.StringFlag{Name: "type", Value: "all", Usage: "the queues to process"}},
			Action:    cl.dispatchAction,
		},
		{
			Name:      "history",
			Usage:     "list the latest delivery attempts",
			UsageText: "admin history [-limit N]",
			Flags:     []cli.Flag{cli.IntFlag{Name: "limit", Value: 20, Usage: "max number of attempts"}},
			Action:    cl.historyAction,
		},
		{
			Name:            "migrate",
			Usage:           "run a goose command against the audit log database",
			UsageText:       "admin migrate up|down|status|version|redo|reset|up-to V|down-to V",
			SkipFlagParsing: true,
			Action:          cl.migrateAction,
		},
	}
	return app
}

func (cl *commandLine) run(args []string) error {
	if len(args) == 0 {
		return errHelp
	}
	return cl.app().Run(args)
}

// usage prints the command's help & returns errHelp.
func usage(ctx *cli.Context) error {
	_ = cli.ShowCommandHelp(ctx, ctx.Command.Name)
	return errHelp
}

func (cl *commandLine) addUserAction(ctx *cli.Context) error {
	uname := ctx.String("username")
	if uname == "" {
		return usage(ctx)
	}
	_, _ = fmt.Fprint(cl.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cl.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		return usage(ctx)
	}
	return cl.addUser(uname, string(pwd))
}

func (cl *commandLine) genKeyAction(ctx *cli.Context) error {
	uname := ctx.String("username")
	if uname == "" {
		return usage(ctx)
	}
	key, err := cl.genKey(uname)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cl.out, key)
	return nil
}

func (cl *commandLine) keyStatusAction(ctx *cli.Context) error {
	key := ctx.String("key")
	if key == "" {
		return usage(ctx)
	}
	return cl.adminSvc.SetAPIKeyStatus(context.Background(), key, ctx.BoolT("active"))
}

func (cl *commandLine) dispatchAction(ctx *cli.Context) error {
	return cl.dispatch(notification.ParseSelector(ctx.String("type")))
}

func (cl *commandLine) historyAction(ctx *cli.Context) error {
	return cl.history(ctx.Int("limit"))
}

func (cl *commandLine) migrateAction(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) == 0 {
		return usage(ctx)
	}
	return cl.migrate(args)
}
