package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-web/core"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// listQuery builds the paginated SELECT and its COUNT for one table.
type listQuery struct {
	table   string
	columns string
	where   []string
	args    []interface{}
	orderBy string
}

func (lq *listQuery) arg(v interface{}) string {
	lq.args = append(lq.args, v)
	return "$" + strconv.Itoa(len(lq.args))
}

// search adds a case-insensitive substring match on any of cols.
func (lq *listQuery) search(term string, cols ...string) {
	if term == "" || len(cols) == 0 {
		return
	}
	ph := lq.arg("%" + likeEscaper.Replace(term) + "%")
	conds := make([]string, 0, len(cols))
	for _, col := range cols {
		conds = append(conds, col+" ILIKE "+ph)
	}
	lq.where = append(lq.where, "("+strings.Join(conds, " OR ")+")")
}

// cond adds a condition; `?` in expr is replaced by the placeholder of val.
func (lq *listQuery) cond(expr string, val interface{}) {
	lq.where = append(lq.where, strings.Replace(expr, "?", lq.arg(val), 1))
}

func (lq *listQuery) whereClause() string {
	if len(lq.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(lq.where, " AND ")
}

func (lq *listQuery) build(page core.PageRequest) (selectSQL, countSQL string, selectArgs, countArgs []interface{}) {
	page = page.Normalize()
	where := lq.whereClause()
	countArgs = append([]interface{}(nil), lq.args...)
	countSQL = "SELECT COUNT(*) FROM " + lq.table + where

	sel := *lq
	sel.args = append([]interface{}(nil), lq.args...)
	limit := sel.arg(page.PerPage)
	offset := sel.arg(page.Offset())
	selectSQL = "SELECT " + lq.columns + " FROM " + lq.table + where +
		" ORDER BY " + lq.orderBy + " LIMIT " + limit + " OFFSET " + offset
	return selectSQL, countSQL, sel.args, countArgs
}

// fetchPage runs the page SELECT and the COUNT concurrently.
func fetchPage[R any, T any](ctx context.Context, db *sqlx.DB, lq *listQuery, page core.PageRequest, conv func(R) T) (core.Page[T], error) {
	selectSQL, countSQL, selectArgs, countArgs := lq.build(page)

	var (
		rows  []R
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrapf(db.SelectContext(gctx, &rows, selectSQL, selectArgs...), "selecting %s", lq.table)
	})
	g.Go(func() error {
		return errors.Wrapf(db.GetContext(gctx, &total, countSQL, countArgs...), "counting %s", lq.table)
	})
	if err := g.Wait(); err != nil {
		return core.Page[T]{}, err
	}

	items := make([]T, 0, len(rows))
	for _, r := range rows {
		items = append(items, conv(r))
	}
	return core.NewPage(items, page, total), nil
}
