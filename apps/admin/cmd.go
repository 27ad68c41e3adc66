package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	out  io.Writer
	// db opens the Postgres database on demand: createdb runs before it exists.
	db    func(ctx context.Context) (*sqlx.DB, error)
	users func(ctx context.Context) (user.Repository, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  createdb                       - create the database role & the database")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]      - run a goose command (up, down, status...)")
	fmt.Fprintln(cli.out, "  seed                           - load the demo dataset")
	fmt.Fprintln(cli.out, "  token -username USERNAME|EMAIL - issue a portal token")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenCmd.SetOutput(cli.out)
	tokenUname := tokenCmd.String("username", "", "The user's username or email.")
	tokenTTL := tokenCmd.Duration("ttl", 24*time.Hour, "How long the token is valid.")

	switch args[1] {
	case "createdb":
		return cli.createDB(ctx)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "seed":
		return cli.seed(ctx)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenUname == "" || *tokenTTL <= 0 {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(ctx, *tokenUname, *tokenTTL)
	default:
		cli.printUsage()
		return errHelp
	}
}
