package main

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/user"
	logsvc "github.com/trezcool/masomo-web/services/logger"
	"github.com/trezcool/masomo-web/storage/database"
	inmemdb "github.com/trezcool/masomo-web/storage/database/inmem"
	"github.com/trezcool/masomo-web/storage/database/seed"
	"github.com/trezcool/masomo-web/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	var (
		once  sync.Once
		db    *sqlx.DB
		dbErr error
	)
	openDB := func(ctx context.Context) (*sqlx.DB, error) {
		once.Do(func() { db, dbErr = database.Open(ctx, conf) })
		return db, dbErr
	}
	defer func() {
		if db != nil {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close", err)
			}
		}
	}()

	cli := commandLine{
		conf: conf,
		out:  os.Stdout,
		db:   openDB,
		users: func(ctx context.Context) (user.Repository, error) {
			switch conf.DataSource {
			case core.DataSourceMemory:
				mem := inmemdb.Open()
				mem.Load(seed.Demo(time.Now().UTC()))
				return inmemdb.NewUserRepository(mem), nil
			case core.DataSourcePostgres:
				db, err := openDB(ctx)
				if err != nil {
					return nil, err
				}
				return sqlxrepos.NewUserRepository(db), nil
			}
			return nil, errors.Errorf("token: unsupported data source %q", conf.DataSource)
		},
	}

	if err := cli.run(context.Background(), os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
