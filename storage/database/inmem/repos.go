package inmemdb

import (
	"cmp"
	"context"
	"strings"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/user"
)

type comparator[T any] func(a, b T) int

// orderBy turns orderings into comparators; unknown fields are skipped, fallback is used when none is left.
func orderBy[T any](orderings []core.DBOrdering, fields map[string]comparator[T], fallback core.DBOrdering) []func(a, b T) int {
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{fallback}
	}
	less := make([]func(a, b T) int, 0, len(orderings))
	for _, ord := range orderings {
		cmpFn, ok := fields[ord.Field]
		if !ok {
			continue
		}
		if ord.Ascending {
			less = append(less, cmpFn)
		} else {
			less = append(less, func(a, b T) int { return cmpFn(b, a) })
		}
	}
	if len(less) == 0 && fallback.Field != "" {
		return orderBy([]core.DBOrdering{fallback}, fields, core.DBOrdering{})
	}
	return less
}

func lowerCmp(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) }

var (
	userFields = map[string]comparator[user.User]{
		"name":       func(a, b user.User) int { return lowerCmp(a.Name, b.Name) },
		"username":   func(a, b user.User) int { return strings.Compare(a.Username, b.Username) },
		"email":      func(a, b user.User) int { return strings.Compare(a.Email, b.Email) },
		"created_at": func(a, b user.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"last_login": func(a, b user.User) int { return a.LastLogin.Compare(b.LastLogin) },
	}
	courseFields = map[string]comparator[course.Course]{
		"title":      func(a, b course.Course) int { return lowerCmp(a.Title, b.Title) },
		"category":   func(a, b course.Course) int { return strings.Compare(a.Category, b.Category) },
		"level":      func(a, b course.Course) int { return cmp.Compare(a.Level, b.Level) },
		"students":   func(a, b course.Course) int { return cmp.Compare(a.Students, b.Students) },
		"created_at": func(a, b course.Course) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}
	postFields = map[string]comparator[blog.Post]{
		"title":      func(a, b blog.Post) int { return lowerCmp(a.Title, b.Title) },
		"author":     func(a, b blog.Post) int { return strings.Compare(a.Author, b.Author) },
		"created_at": func(a, b blog.Post) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}
	newestFirst = core.DBOrdering{Field: "created_at"}
)

type userRepository struct {
	db *table[user.User]
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, page core.PageRequest) (core.Page[user.User], error) {
	return repo.db.query(filter.Match, orderBy(page.Ordering, userFields, newestFirst), page), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.rows {
		if usr.ID == id {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

type courseRepository struct {
	db *table[course.Course]
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, page core.PageRequest) (core.Page[course.Course], error) {
	return repo.db.query(filter.Match, orderBy(page.Ordering, courseFields, newestFirst), page), nil
}

type postRepository struct {
	db *table[blog.Post]
}

func NewPostRepository(db *DB) blog.Repository {
	return &postRepository{db: db.post}
}

func (repo *postRepository) QueryPosts(_ context.Context, filter blog.QueryFilter, page core.PageRequest) (core.Page[blog.Post], error) {
	return repo.db.query(filter.Match, orderBy(page.Ordering, postFields, newestFirst), page), nil
}
