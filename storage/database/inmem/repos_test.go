package inmemdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/user"
	"github.com/trezcool/masomo-web/storage/database/inmem"
	"github.com/trezcool/masomo-web/storage/database/seed"
	"github.com/trezcool/masomo-web/tests"
)

func TestUserRepository_QueryUsers(t *testing.T) {
	now := testutil.Now
	ds := seed.Dataset{Users: []user.User{
		{ID: "1", Name: "Ana Kalala", Username: "akalala", IsActive: true, Roles: []string{user.RoleStudent}, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "2", Name: "benoit Mbuyi", Username: "bmbuyi", IsActive: true, Roles: []string{user.RoleTeacher}, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "3", Name: "Chloe Ilunga", Username: "cilunga", IsActive: false, Roles: []string{user.RoleStudent}, CreatedAt: now.Add(-time.Hour)},
		{ID: "4", Name: "Daniel Ngoy", Username: "dngoy", IsActive: true, Roles: []string{user.RoleAdminOwner}, CreatedAt: now},
	}}
	repo := inmemdb.NewUserRepository(testutil.SeededDB(t, ds))
	ctx := context.Background()
	active := true

	tests := []struct {
		name      string
		filter    user.QueryFilter
		page      core.PageRequest
		wantIDs   []string
		wantTotal int
		wantPages int
	}{
		{name: "newest first", page: core.PageRequest{Page: 1, PerPage: 10}, wantIDs: []string{"4", "3", "2", "1"}, wantTotal: 4, wantPages: 1},
		{name: "page 2", page: core.PageRequest{Page: 2, PerPage: 3}, wantIDs: []string{"1"}, wantTotal: 4, wantPages: 2},
		{name: "past the end", page: core.PageRequest{Page: 5, PerPage: 3}, wantIDs: []string{}, wantTotal: 4, wantPages: 2},
		{name: "students", filter: user.QueryFilter{Roles: []string{user.RoleStudent}}, page: core.PageRequest{PerPage: 10}, wantIDs: []string{"3", "1"}, wantTotal: 2, wantPages: 1},
		{name: "admins", filter: user.QueryFilter{Roles: []string{user.RoleAdmin}}, wantIDs: []string{"4"}, wantTotal: 1, wantPages: 1},
		{name: "active students", filter: user.QueryFilter{Roles: []string{user.RoleStudent}, IsActive: &active}, wantIDs: []string{"1"}, wantTotal: 1, wantPages: 1},
		{name: "search", filter: user.QueryFilter{Search: "BUY"}, wantIDs: []string{"2"}, wantTotal: 1, wantPages: 1},
		{name: "no match", filter: user.QueryFilter{Search: "zzz"}, wantIDs: []string{}, wantTotal: 0, wantPages: 1},
		{
			name:      "ordering by name",
			page:      core.PageRequest{Ordering: []core.DBOrdering{{Field: "name", Ascending: true}}},
			wantIDs:   []string{"1", "2", "3", "4"},
			wantTotal: 4, wantPages: 1,
		},
		{
			name:      "unknown ordering field",
			page:      core.PageRequest{Ordering: []core.DBOrdering{{Field: "password"}}},
			wantIDs:   []string{"4", "3", "2", "1"},
			wantTotal: 4, wantPages: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.QueryUsers(ctx, tt.filter, tt.page)
			require.NoError(t, err)
			ids := make([]string, 0, len(res.Items))
			for _, usr := range res.Items {
				ids = append(ids, usr.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Equal(t, tt.wantPages, res.TotalPages)
		})
	}

	usr, err := repo.GetUserByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "bmbuyi", usr.Username)
	_, err = repo.GetUserByID(ctx, "42")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestCourseRepository_QueryCourses(t *testing.T) {
	db := testutil.SeededDB(t)
	repo := inmemdb.NewCourseRepository(db)
	ctx := context.Background()

	all, err := repo.QueryCourses(ctx, course.QueryFilter{}, core.PageRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, len(testutil.Dataset().Courses), all.Total)
	assert.Len(t, all.Items, 10)
	assert.Equal(t, (all.Total+9)/10, all.TotalPages)

	maths, err := repo.QueryCourses(ctx, course.QueryFilter{Category: "mathematics", Level: 1}, core.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, maths.Total)
	for _, c := range maths.Items {
		assert.Equal(t, "mathematics", c.Category)
		assert.Equal(t, 1, c.Level)
	}

	byStudents, err := repo.QueryCourses(ctx, course.QueryFilter{}, core.PageRequest{Ordering: []core.DBOrdering{{Field: "students"}}})
	require.NoError(t, err)
	for i := 1; i < len(byStudents.Items); i++ {
		assert.GreaterOrEqual(t, byStudents.Items[i-1].Students, byStudents.Items[i].Students)
	}
}

func TestPostRepository_QueryPosts(t *testing.T) {
	repo := inmemdb.NewPostRepository(testutil.SeededDB(t))
	published := false

	res, err := repo.QueryPosts(context.Background(), blog.QueryFilter{Published: &published}, core.PageRequest{})
	require.NoError(t, err)
	assert.NotZero(t, res.Total)
	for _, p := range res.Items {
		assert.False(t, p.Published)
	}
}
