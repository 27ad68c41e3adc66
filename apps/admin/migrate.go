package main

import (
	"context"
	"fmt"

	"github.com/trezcool/masomo-web/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations    // mockable
	createDBFunc = database.CreateIfNotExist // mockable
)

func (cli *commandLine) createDB(ctx context.Context) error {
	if err := createDBFunc(ctx, cli.conf); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "database %q is ready\n", cli.conf.Database.Name)
	return nil
}

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	db, err := cli.db(ctx)
	if err != nil {
		return err
	}
	return gooseRunFunc(ctx, db.DB, "postgres", database.Migrations(), database.MigrationsDir, args[0], args[1:]...)
}
