package sqlxrepos

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/user"
)

func TestUsersQuery(t *testing.T) {
	active := true
	lq := usersQuery(
		user.QueryFilter{Search: "50%_off", Roles: []string{user.RoleStudent}, IsActive: &active},
		core.PageRequest{Page: 3, PerPage: 20, Ordering: []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "password"}}},
	)
	selectSQL, countSQL, selectArgs, countArgs := lq.build(core.PageRequest{Page: 3, PerPage: 20})

	where := " WHERE (name ILIKE $1 OR username ILIKE $1 OR email ILIKE $1)" +
		" AND EXISTS (SELECT 1 FROM unnest(roles) AS r WHERE r LIKE ANY($2)) AND is_active = $3"
	assert.Equal(t, "SELECT COUNT(*) FROM users"+where, countSQL)
	assert.Equal(t, "SELECT "+userColumns+" FROM users"+where+" ORDER BY name ASC, id LIMIT $4 OFFSET $5", selectSQL)
	assert.Equal(t, []interface{}{`%50\%\_off%`, pq.Array([]string{"student:%"}), true}, countArgs)
	assert.Equal(t, append(countArgs, 20, 40), selectArgs)
}

func TestCoursesQuery(t *testing.T) {
	lq := coursesQuery(course.QueryFilter{Teacher: "mkabila", Level: 2}, core.PageRequest{})
	selectSQL, countSQL, selectArgs, _ := lq.build(core.PageRequest{})

	assert.Equal(t, "SELECT COUNT(*) FROM courses WHERE level = $1 AND lower(teacher) = $2", countSQL)
	assert.Equal(t, "SELECT "+courseColumns+" FROM courses WHERE level = $1 AND lower(teacher) = $2 ORDER BY created_at DESC, id LIMIT $3 OFFSET $4", selectSQL)
	assert.Equal(t, []interface{}{2, "mkabila", core.DefaultPerPage, 0}, selectArgs)
}

func TestPostsQuery_NoFilter(t *testing.T) {
	lq := postsQuery(blog.QueryFilter{}, core.PageRequest{Ordering: []core.DBOrdering{{Field: "title"}}})
	selectSQL, countSQL, _, countArgs := lq.build(core.PageRequest{Page: 2, PerPage: 5})

	assert.Equal(t, "SELECT COUNT(*) FROM posts", countSQL)
	assert.Equal(t, "SELECT "+postColumns+" FROM posts ORDER BY title DESC, id LIMIT $1 OFFSET $2", selectSQL)
	assert.Empty(t, countArgs)
}
