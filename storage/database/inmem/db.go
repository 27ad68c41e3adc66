package inmemdb

import (
	"sort"
	"sync"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/user"
	"github.com/trezcool/masomo-web/storage/database/seed"
)

type (
	DB struct {
		user   *table[user.User]
		course *table[course.Course]
		post   *table[blog.Post]
	}

	table[T any] struct {
		mutex sync.RWMutex
		rows  []T
	}
)

func Open() *DB {
	return &DB{
		user:   &table[user.User]{},
		course: &table[course.Course]{},
		post:   &table[blog.Post]{},
	}
}

// Load replaces the content of every table with ds.
func (db *DB) Load(ds seed.Dataset) {
	db.user.replace(ds.Users)
	db.course.replace(ds.Courses)
	db.post.replace(ds.Posts)
}

func (t *table[T]) replace(rows []T) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.rows = append(make([]T, 0, len(rows)), rows...)
}

// query filters, orders (a stable sort on the given key comparisons) and paginates the rows.
func (t *table[T]) query(match func(T) bool, less []func(a, b T) int, page core.PageRequest) core.Page[T] {
	t.mutex.RLock()
	matched := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if match(row) {
			matched = append(matched, row)
		}
	}
	t.mutex.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		for _, cmp := range less {
			if c := cmp(matched[i], matched[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return core.Paginate(matched, page)
}
