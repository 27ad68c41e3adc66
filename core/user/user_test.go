package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-web/core"
)

func TestMaxRolePriority(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{name: "none", want: 0},
		{name: "student", roles: []string{RoleStudent}, want: 1},
		{name: "teacher & student", roles: []string{RoleStudent, RoleTeacher}, want: 11},
		{name: "owner", roles: []string{RoleAdmin, RoleAdminOwner}, want: 30},
		{name: "unknown", roles: []string{"janitor:"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxRolePriority(tt.roles))
		})
	}
}

func TestUser_Roles(t *testing.T) {
	usr := User{Roles: []string{RoleTeacher, RoleAdminPrincipal}}
	assert.True(t, usr.IsAdmin())
	assert.True(t, usr.IsTeacher())
	assert.False(t, usr.IsStudent())
	assert.Equal(t, "Admin Principal", usr.RoleLabel())
	assert.Equal(t, "", (&User{}).RoleLabel())
}

func TestQueryFilter_Match(t *testing.T) {
	active, inactive := true, false
	ana := User{Name: "Ana Kalala", Username: "akalala", Email: "ana@masomo.test", IsActive: true, Roles: []string{RoleStudent}}

	tests := []struct {
		name   string
		filter QueryFilter
		want   bool
	}{
		{name: "empty", filter: QueryFilter{}, want: true},
		{name: "name", filter: QueryFilter{Search: "KALA"}, want: true},
		{name: "email", filter: QueryFilter{Search: "masomo.test"}, want: true},
		{name: "no match", filter: QueryFilter{Search: "bob"}, want: false},
		{name: "role", filter: QueryFilter{Roles: []string{RoleStudent}}, want: true},
		{name: "other role", filter: QueryFilter{Roles: []string{RoleTeacher}}, want: false},
		{name: "active", filter: QueryFilter{IsActive: &active}, want: true},
		{name: "inactive", filter: QueryFilter{IsActive: &inactive}, want: false},
		{name: "all fields", filter: QueryFilter{Search: "ana", Roles: []string{RoleTeacher, RoleStudent}, IsActive: &active}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(ana))
		})
	}
}

func TestQueryFilter_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	RegisterValidators(validate, translator)

	assert.NoError(t, validate.Struct(QueryFilter{Search: "ana", Roles: []string{RoleStudent, RoleAdmin}}))
	assert.Error(t, validate.Struct(QueryFilter{Roles: []string{"janitor:"}}))
	assert.Error(t, validate.Struct(QueryFilter{Search: "ana\x00"}))
}
