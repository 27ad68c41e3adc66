// Package seed generates the demo dataset served by the in-memory data source and loaded by `admin seed`.
package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/user"
)

// namespace of the demo ids; ids are stable across runs
var namespace = uuid.MustParse("6f1c9a55-2b1e-4b7e-9d8a-4f6c1e2d3b70")

type Dataset struct {
	Users   []user.User
	Courses []course.Course
	Posts   []blog.Post
}

func id(kind string, n int) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s:%d", kind, n))).String()
}

var (
	firstNames = []string{"Ana", "Benoit", "Chloe", "Daniel", "Esther", "Fiston", "Grace", "Henri", "Ines", "Jonas", "Kevine", "Luc"}
	lastNames  = []string{"Kalala", "Mbuyi", "Tshibanda", "Ilunga", "Mukendi", "Kabongo", "Lukusa", "Ngoy"}
	subjects   = []struct{ title, category string }{
		{"Algebra", "mathematics"}, {"Geometry", "mathematics"}, {"Statistics", "mathematics"},
		{"Cell Biology", "science"}, {"Organic Chemistry", "science"}, {"Mechanics", "science"},
		{"French Literature", "languages"}, {"English Grammar", "languages"}, {"Swahili", "languages"},
		{"World History", "humanities"}, {"Geography", "humanities"}, {"Go Programming", "computing"},
		{"Databases", "computing"}, {"Web Design", "computing"},
	}
	postTitles = []string{
		"Welcome to the new term", "Exam timetable published", "Study tips for finals", "Library opening hours",
		"Science fair winners", "Meet our new teachers", "Coding club kick-off", "Parents evening",
		"Sports day recap", "Scholarship applications open", "Reading challenge", "Holiday schedule",
	}
)

// Demo builds a deterministic dataset: admins, teachers, students, their courses and blog posts.
func Demo(now time.Time) Dataset {
	now = now.UTC().Truncate(time.Second)
	var ds Dataset

	ds.Users = append(ds.Users, user.User{
		ID: id("user", 0), Name: "Masomo Owner", Username: "owner", Email: "owner@masomo.test",
		IsActive: true, Roles: []string{user.RoleAdminOwner}, CreatedAt: now.Add(-400 * 24 * time.Hour),
	})

	var teachers []string
	for i := 0; i < len(firstNames)*len(lastNames)/2; i++ {
		first, last := firstNames[i%len(firstNames)], lastNames[(i/len(firstNames)+i)%len(lastNames)]
		username := strings.ToLower(first[:1] + last + fmt.Sprint(i))
		roles := []string{user.RoleStudent}
		if i%8 == 0 {
			roles = []string{user.RoleTeacher}
			teachers = append(teachers, username)
		}
		ds.Users = append(ds.Users, user.User{
			ID:        id("user", i+1),
			Name:      first + " " + last,
			Username:  username,
			Email:     username + "@masomo.test",
			IsActive:  i%11 != 0,
			Roles:     roles,
			CreatedAt: now.Add(-time.Duration(i) * 36 * time.Hour),
		})
	}

	for i, subj := range subjects {
		for lvl := 1; lvl <= 3; lvl++ {
			n := i*3 + lvl
			ds.Courses = append(ds.Courses, course.Course{
				ID:        id("course", n),
				Title:     fmt.Sprintf("%s %s", subj.title, course.Levels[lvl]),
				Category:  subj.category,
				Teacher:   teachers[n%len(teachers)],
				Level:     lvl,
				Students:  (n * 7) % 45,
				Published: n%5 != 0,
				CreatedAt: now.Add(-time.Duration(n) * 48 * time.Hour),
			})
		}
	}

	for i, title := range postTitles {
		ds.Posts = append(ds.Posts, blog.Post{
			ID:        id("post", i),
			Title:     title,
			Author:    teachers[i%len(teachers)],
			Published: i%4 != 3,
			CreatedAt: now.Add(-time.Duration(i) * 72 * time.Hour),
		})
	}
	return ds
}
