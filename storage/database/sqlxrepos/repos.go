package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/user"
)

type userRow struct {
	user.User
	Roles pq.StringArray `db:"roles"`
}

func (r userRow) toUser() user.User {
	usr := r.User
	usr.Roles = []string(r.Roles)
	return usr
}

const userColumns = "id, name, username, email, is_active, roles, created_at, last_login"

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func usersQuery(filter user.QueryFilter, page core.PageRequest) *listQuery {
	lq := &listQuery{
		table:   "users",
		columns: userColumns,
		orderBy: core.OrderByClause(page.Ordering, user.Orderings, "created_at DESC") + ", id",
	}
	lq.search(filter.Search, "name", "username", "email")
	if len(filter.Roles) > 0 {
		patterns := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			patterns = append(patterns, likeEscaper.Replace(role)+"%")
		}
		lq.cond("EXISTS (SELECT 1 FROM unnest(roles) AS r WHERE r LIKE ANY(?))", pq.Array(patterns))
	}
	if filter.IsActive != nil {
		lq.cond("is_active = ?", *filter.IsActive)
	}
	return lq
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, page core.PageRequest) (core.Page[user.User], error) {
	return fetchPage(ctx, repo.db, usersQuery(filter, page), page, userRow.toUser)
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

const courseColumns = "id, title, category, teacher, level, students, published, created_at"

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func coursesQuery(filter course.QueryFilter, page core.PageRequest) *listQuery {
	lq := &listQuery{
		table:   "courses",
		columns: courseColumns,
		orderBy: core.OrderByClause(page.Ordering, course.Orderings, "created_at DESC") + ", id",
	}
	lq.search(filter.Search, "title", "category", "teacher")
	if filter.Category != "" {
		lq.cond("lower(category) = ?", filter.Category)
	}
	if filter.Level != 0 {
		lq.cond("level = ?", filter.Level)
	}
	if filter.Teacher != "" {
		lq.cond("lower(teacher) = ?", filter.Teacher)
	}
	if filter.Published != nil {
		lq.cond("published = ?", *filter.Published)
	}
	return lq
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, page core.PageRequest) (core.Page[course.Course], error) {
	return fetchPage(ctx, repo.db, coursesQuery(filter, page), page, func(c course.Course) course.Course { return c })
}

const postColumns = "id, title, author, published, created_at"

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) blog.Repository {
	return &postRepository{db: db}
}

func postsQuery(filter blog.QueryFilter, page core.PageRequest) *listQuery {
	lq := &listQuery{
		table:   "posts",
		columns: postColumns,
		orderBy: core.OrderByClause(page.Ordering, blog.Orderings, "created_at DESC") + ", id",
	}
	lq.search(filter.Search, "title", "author")
	if filter.Published != nil {
		lq.cond("published = ?", *filter.Published)
	}
	return lq
}

func (repo *postRepository) QueryPosts(ctx context.Context, filter blog.QueryFilter, page core.PageRequest) (core.Page[blog.Post], error) {
	return fetchPage(ctx, repo.db, postsQuery(filter, page), page, func(p blog.Post) blog.Post { return p })
}

// Seed inserts users, courses and posts, skipping ids that already exist.
func Seed(ctx context.Context, db *sqlx.DB, users []user.User, courses []course.Course, posts []blog.Post) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting seed transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, usr := range users {
		row := userRow{User: usr, Roles: pq.StringArray(usr.Roles)}
		if _, err = tx.NamedExecContext(ctx,
			"INSERT INTO users ("+userColumns+") VALUES (:id, :name, :username, :email, :is_active, :roles, :created_at, :last_login) ON CONFLICT (id) DO NOTHING",
			row,
		); err != nil {
			return errors.Wrapf(err, "seeding user %s", usr.Username)
		}
	}
	for _, c := range courses {
		if _, err = tx.NamedExecContext(ctx,
			"INSERT INTO courses ("+courseColumns+") VALUES (:id, :title, :category, :teacher, :level, :students, :published, :created_at) ON CONFLICT (id) DO NOTHING",
			c,
		); err != nil {
			return errors.Wrapf(err, "seeding course %s", c.Title)
		}
	}
	for _, p := range posts {
		if _, err = tx.NamedExecContext(ctx,
			"INSERT INTO posts ("+postColumns+") VALUES (:id, :title, :author, :published, :created_at) ON CONFLICT (id) DO NOTHING",
			p,
		); err != nil {
			return errors.Wrapf(err, "seeding post %s", p.Title)
		}
	}
	return errors.Wrap(tx.Commit(), "committing seed")
}
