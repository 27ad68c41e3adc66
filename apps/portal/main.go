package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoportal "github.com/trezcool/masomo-web/apps/portal/echo"
	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/user"
	"github.com/trezcool/masomo-web/services/backend"
	logsvc "github.com/trezcool/masomo-web/services/logger"
	"github.com/trezcool/masomo-web/storage/database"
	inmemdb "github.com/trezcool/masomo-web/storage/database/inmem"
	"github.com/trezcool/masomo-web/storage/database/seed"
	"github.com/trezcool/masomo-web/storage/database/sqlxrepos"
	"github.com/trezcool/masomo-web/storage/prefstore"
)

type repositories struct {
	users   user.Repository
	courses course.Repository
	posts   blog.Repository
	close   func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "PORTAL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug && conf.RollbarToken != "")

	ctx := context.Background()

	// set up data source
	repos, err := setUpRepositories(ctx, conf, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s data source: %v", conf.DataSource, err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up preferences
	var prefs echoportal.PrefsSource
	if conf.PrefsBackend == core.PrefsBackendSQLite {
		store, err := prefstore.Open(ctx, conf.PrefsPath, dbLogger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening preferences: %v", err), err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				dbLogger.Error("Failed to close preferences", err)
			}
		}()
		if n, err := store.Purge(ctx); err != nil {
			dbLogger.Warn("purging preferences", err)
		} else {
			dbLogger.Info(fmt.Sprintf("purged %d expired preferences", n))
		}
		prefs = store
	}

	// set up services
	usrSvc := user.NewService(repos.users)
	courseSvc := course.NewService(repos.courses)
	blogSvc := blog.NewService(repos.posts)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q, data source %q", conf.Build, conf.DataSource))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start Portal

	server := echoportal.NewServer(
		echoportal.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			UserSvc:    usrSvc,
			CourseSvc:  courseSvc,
			BlogSvc:    blogSvc,
			Prefs:      prefs,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpRepositories(ctx context.Context, conf *core.Config, logger core.Logger) (repositories, error) {
	switch conf.DataSource {
	case core.DataSourceMemory:
		db := inmemdb.Open()
		db.Load(seed.Demo(time.Now().UTC()))
		return repositories{
			users:   inmemdb.NewUserRepository(db),
			courses: inmemdb.NewCourseRepository(db),
			posts:   inmemdb.NewPostRepository(db),
			close:   func() error { return nil },
		}, nil

	case core.DataSourcePostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return repositories{}, err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return repositories{}, err
		}
		if err = database.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return repositories{}, err
		}
		return repositories{
			users:   sqlxrepos.NewUserRepository(db),
			courses: sqlxrepos.NewCourseRepository(db),
			posts:   sqlxrepos.NewPostRepository(db),
			close:   db.Close,
		}, nil

	case core.DataSourceREST:
		client := backend.NewClient(conf.Backend)
		if err := client.Ping(ctx); err != nil {
			// the screens report the backend as unreachable until it answers
			logger.Warn("backend unreachable", err, map[string]interface{}{"url": conf.Backend.BaseURL})
		}
		return repositories{users: client, courses: client, posts: client, close: func() error { return nil }}, nil
	}
	return repositories{}, errors.Errorf("unknown data source %q", conf.DataSource)
}
