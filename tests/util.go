package testutil

import (
	"fmt"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/user"
	"github.com/trezcool/masomo-web/storage/database/inmem"
	"github.com/trezcool/masomo-web/storage/database/seed"
)

// Now is the reference time of the fixtures.
var Now = time.Date(2021, time.February, 1, 9, 0, 0, 0, time.UTC)

// Config returns a test configuration served from memory.
func Config() *core.Config {
	return &core.Config{
		TestMode:     true,
		Env:          "TEST",
		AppName:      "Masomo",
		SecretKey:    "test-secret",
		LoginURL:     "/login",
		PerPage:      core.DefaultPerPage,
		DataSource:   core.DataSourceMemory,
		PrefsBackend: core.PrefsBackendCookie,
		Server:       core.ServerConfig{Host: "example.com", Address: ":0", ShutdownTimeout: time.Second, DisableReqLogs: true},
	}
}

// Validator returns a validator with every custom tag registered, and its translator.
func Validator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	return validate, translator
}

// Logger is a core.Logger writing to the test log.
type Logger struct {
	T *testing.T
}

var _ core.Logger = Logger{}

func (l Logger) log(level, msg string, args []interface{}) {
	l.T.Helper()
	l.T.Logf("%s: %s %s", level, msg, fmt.Sprint(args...))
}

func (l Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l Logger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	l.T.FailNow()
}

// Dataset is the demo dataset at Now.
func Dataset() seed.Dataset {
	return seed.Demo(Now)
}

// SeededDB returns an in-memory database loaded with ds (the demo dataset when omitted).
func SeededDB(t *testing.T, ds ...seed.Dataset) *inmemdb.DB {
	t.Helper()
	db := inmemdb.Open()
	if len(ds) > 0 {
		db.Load(ds[0])
	} else {
		db.Load(Dataset())
	}
	return db
}
