package course

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
)

const Resource = "courses"

var (
	// errors
	ErrNotFound = errors.New("course not found")

	Orderings = map[string]string{
		"title":      "title",
		"category":   "category",
		"level":      "level",
		"students":   "students",
		"created_at": "created_at",
	}

	Levels = map[int]string{
		1: "Beginner",
		2: "Intermediate",
		3: "Advanced",
	}
)

type Course struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Category  string    `json:"category" db:"category"`
	Teacher   string    `json:"teacher" db:"teacher"` // username
	Level     int       `json:"level" db:"level"`
	Students  int       `json:"students" db:"students"`
	Published bool      `json:"published" db:"published"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

func (c Course) LevelName() string {
	if name, ok := Levels[c.Level]; ok {
		return name
	}
	return "-"
}

type QueryFilter struct {
	Search    string `query:"q" validate:"nocontrol,max=100"`
	Category  string `query:"category" validate:"nocontrol,max=50"`
	Level     int    `query:"level" validate:"omitempty,min=1,max=3"`
	Teacher   string `query:"teacher" validate:"nocontrol,max=50"`
	Published *bool  `query:"published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.Teacher = core.CleanString(qf.Teacher, true /* lower */)
}

// Match reports whether c passes every set filter field.
// Search is a case-insensitive match on one of Course.Title, Course.Category or Course.Teacher.
func (qf QueryFilter) Match(c Course) bool {
	if qf.Search != "" {
		term := strings.ToLower(qf.Search)
		if !strings.Contains(strings.ToLower(c.Title), term) &&
			!strings.Contains(strings.ToLower(c.Category), term) &&
			!strings.Contains(strings.ToLower(c.Teacher), term) {
			return false
		}
	}
	if qf.Category != "" && !strings.EqualFold(c.Category, qf.Category) {
		return false
	}
	if qf.Level != 0 && c.Level != qf.Level {
		return false
	}
	if qf.Teacher != "" && !strings.EqualFold(c.Teacher, qf.Teacher) {
		return false
	}
	if qf.Published != nil && c.Published != *qf.Published {
		return false
	}
	return true
}

type (
	Repository interface {
		QueryCourses(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Course], error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Course], error) {
	filter.Clean()
	res, err := svc.repo.QueryCourses(ctx, filter, page.Normalize())
	if err != nil {
		return core.Page[Course]{}, errors.Wrap(err, "querying courses")
	}
	return res, nil
}

// Catalog lists the published courses (student portal).
func (svc *Service) Catalog(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Course], error) {
	published := true
	filter.Published = &published
	return svc.Query(ctx, filter, page)
}

// TaughtBy lists the courses of one teacher (teacher console).
func (svc *Service) TaughtBy(ctx context.Context, teacher string, filter QueryFilter, page core.PageRequest) (core.Page[Course], error) {
	filter.Teacher = teacher
	return svc.Query(ctx, filter, page)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	res, err := svc.Query(ctx, filter, core.PageRequest{Page: 1, PerPage: 1})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}
