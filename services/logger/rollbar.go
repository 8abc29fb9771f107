package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/user"
)

// RollbarLogger prints to std and reports to rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
// The acting user is reported as the rollbar person and never printed.
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	printed := make([]interface{}, 0, len(args))
	for _, arg := range args {
		// set acting User
		if usr, ok := arg.(user.User); ok {
			if !usrSet { // only set one User
				rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
				usrSet = true
			}
			continue
		}
		newArgs = append(newArgs, arg)
		printed = append(printed, arg)
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs, printed
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, printed := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.print(msg, printed)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, printed := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.print(msg, printed)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, printed := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.print(msg, printed)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, printed := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.print(msg, printed)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, printed := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	l.print(msg, printed)
	l.std.Fatal(msg)
}
