package logsvc

import (
	"io/ioutil"
	"log"

	"github.com/disiplinku/backend/core"
)

// StdLogger only prints to a standard logger; Debug output is dropped unless verbose.
type StdLogger struct {
	std     *log.Logger
	verbose bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger, verbose bool) *StdLogger {
	return &StdLogger{std: std, verbose: verbose}
}

// NewNopLogger discards everything.
func NewNopLogger() *StdLogger {
	return &StdLogger{std: log.New(ioutil.Discard, "", 0)}
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.verbose {
		printArgs(l.std, msg, args)
	}
}

func (l StdLogger) Info(msg string, args ...interface{})  { printArgs(l.std, msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { printArgs(l.std, "WARN: "+msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { printArgs(l.std, "ERROR: "+msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	printArgs(l.std, "FATAL: "+msg, args)
	l.std.Fatal(msg)
}

func printArgs(std *log.Logger, msg string, args []interface{}) {
	std.Println(msg)
	for _, arg := range args {
		std.Printf("%+v\n", arg)
	}
}
