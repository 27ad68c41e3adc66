package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/user"
)

// RollbarLogger reports to Rollbar (when a token is configured) and mirrors every message to std.
type RollbarLogger struct {
	std     *log.Logger
	enabled bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{std: std}
	l.Enable(conf.RollbarToken != "" && !conf.TestMode)
	return l
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.enabled = enabled
	rollbar.SetEnabled(enabled)
}

// Close waits for the queued reports to be sent.
func (l *RollbarLogger) Close() {
	if l.enabled {
		rollbar.Close()
	}
}

// split sorts args into what rollbar understands: one error, one extras map and the current user.
// Loose `key, value` pairs are gathered into the extras.
func split(args []interface{}) (err error, extras map[string]interface{}, usr *user.User) {
	extras = make(map[string]interface{})
	for i := 0; i < len(args); i++ {
		switch arg := args[i].(type) {
		case error:
			if err == nil {
				err = arg
			} else {
				extras[fmt.Sprintf("error_%d", i)] = arg.Error()
			}
		case user.User:
			if usr == nil { // only set one User
				u := arg
				usr = &u
			}
		case map[string]interface{}:
			for k, v := range arg {
				extras[k] = v
			}
		case string:
			if i+1 < len(args) {
				if e, ok := args[i+1].(error); ok {
					extras[arg] = e.Error()
					if err == nil {
						err = e
					}
				} else {
					extras[arg] = args[i+1]
				}
				i++
			} else {
				extras[fmt.Sprintf("arg_%d", i)] = arg
			}
		default:
			extras[fmt.Sprintf("arg_%d", i)] = arg
		}
	}
	return err, extras, usr
}

func (l *RollbarLogger) report(level, msg string, args []interface{}) {
	err, extras, usr := split(args)
	l.print(level, msg, err, extras)
	if !l.enabled {
		return
	}

	if usr != nil {
		rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	rbArgs := []interface{}{msg}
	if err != nil {
		rbArgs = []interface{}{err}
		extras["message"] = msg
	}
	if len(extras) > 0 {
		rbArgs = append(rbArgs, extras)
	}
	rollbar.Log(level, rbArgs...)
}

func (l *RollbarLogger) print(level, msg string, err error, extras map[string]interface{}) {
	var b strings.Builder
	b.WriteString(strings.ToUpper(level))
	b.WriteString(": ")
	b.WriteString(msg)
	if err != nil {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%+v", k, extras[k])
	}
	l.std.Println(b.String())
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.DEBUG, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	l.Close()
	l.std.Fatal(msg)
}
