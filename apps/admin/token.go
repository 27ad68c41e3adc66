package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	echoportal "github.com/trezcool/masomo-web/apps/portal/echo"
	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/user"
)

// token prints a signed portal token for the user, to be set as the `token` cookie.
func (cli *commandLine) token(ctx context.Context, uname string, ttl time.Duration) error {
	repo, err := cli.users(ctx)
	if err != nil {
		return err
	}
	uname = core.CleanString(uname, true /* lower */)

	res, err := user.NewService(repo).Query(ctx, user.QueryFilter{Search: uname}, core.PageRequest{Page: 1, PerPage: core.MaxPerPage})
	if err != nil {
		return errors.Wrap(err, "looking up user")
	}
	for _, usr := range res.Items {
		if strings.EqualFold(usr.Username, uname) || strings.EqualFold(usr.Email, uname) {
			if !usr.IsActive {
				return errors.Errorf("user %q is not active", usr.Username)
			}
			tok, err := echoportal.GenerateToken(echoportal.GetUserClaims(usr, cli.conf, ttl), cli.conf.SecretKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.out, tok)
			return nil
		}
	}
	return user.ErrNotFound
}
