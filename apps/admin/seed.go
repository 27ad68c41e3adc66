package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/masomo-web/storage/database/seed"
	"github.com/trezcool/masomo-web/storage/database/sqlxrepos"
)

var seedFunc = sqlxrepos.Seed // mockable

// seed loads the demo dataset; rows already present are kept.
func (cli *commandLine) seed(ctx context.Context) error {
	db, err := cli.db(ctx)
	if err != nil {
		return err
	}
	ds := seed.Demo(time.Now().UTC())
	if err = seedFunc(ctx, db, ds.Users, ds.Courses, ds.Posts); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "seeded %d users, %d courses, %d posts\n", len(ds.Users), len(ds.Courses), len(ds.Posts))
	return nil
}
